// Package azcli builds Azure CLI command lines for web-hosting resources and
// decodes their JSON output. Every command goes through an executor so it can
// be recorded and replayed.
package azcli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/azwebapps/azwebapps/internal/executor"
)

// ErrUnexpectedOutput is returned when az output cannot be decoded.
var ErrUnexpectedOutput = errors.New("unexpected az output")

// Client issues az commands scoped to one resource group.
//
// Command text is compared byte for byte on replay, so every string here,
// including the trailing space of the share listing and of webapp delete,
// must stay identical to what existing session logs contain.
type Client struct {
	Exec  *executor.Executor
	Group string
}

// New returns a Client for group.
func New(exec *executor.Executor, group string) *Client {
	return &Client{Exec: exec, Group: group}
}

// Resource holds the fields common to most az list outputs.
type Resource struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Location      string `json:"location,omitempty"`
	ResourceGroup string `json:"resourceGroup,omitempty"`
	Type          string `json:"type,omitempty"`
}

// Location is one entry of az account list-locations.
type Location struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Manifest is one image manifest in a registry repository.
type Manifest struct {
	Digest    string   `json:"digest"`
	Tags      []string `json:"tags"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// StorageKey is one access key of a storage account.
type StorageKey struct {
	KeyName     string `json:"keyName"`
	Permissions string `json:"permissions,omitempty"`
	Value       string `json:"value"`
}

// FileShare is one Azure Files share.
type FileShare struct {
	Name string `json:"name"`
}

// WebappMount describes a storage mount configured on a web app. az returns
// these keyed by custom id.
type WebappMount struct {
	AccountName string `json:"accountName"`
	ShareName   string `json:"shareName"`
	MountPath   string `json:"mountPath"`
	Type        string `json:"type"`
	State       string `json:"state,omitempty"`
}

// Setting is a name/value pair from az webapp config container show|set.
type Setting struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Mount describes a file share to attach to a web app.
type Mount struct {
	Webapp    string
	CustomID  string
	Share     string
	Account   string
	AccessKey string
	Path      string
}

// query executes command and decodes its JSON output into v.
func (c *Client) query(command string, echo executor.Echo, v interface{}) error {
	if err := c.Exec.Execute(command, echo); err != nil {
		return err
	}
	if !c.Exec.DecodeJSON(v) {
		return fmt.Errorf("%s: %w", command, ErrUnexpectedOutput)
	}
	return nil
}

// text executes command and returns its raw output.
func (c *Client) text(command string) (string, error) {
	if err := c.Exec.Execute(command, executor.DefaultEcho); err != nil {
		return "", err
	}
	return c.Exec.Text(), nil
}

// quiet is used for listings where az prints harmless warnings on stderr.
var quiet = executor.Echo{}

// LocationKey normalizes a region display name ("East US" becomes "eastus").
func LocationKey(displayName string) string {
	return strings.ToLower(strings.Join(strings.Fields(displayName), ""))
}

// Locations maps both normalized display names and region names to the
// region name.
func (c *Client) Locations() (map[string]string, error) {
	var all []Location
	if err := c.query("az account list-locations", executor.DefaultEcho, &all); err != nil {
		return nil, err
	}
	m := make(map[string]string, 2*len(all))
	for _, l := range all {
		m[LocationKey(l.DisplayName)] = l.Name
		m[l.Name] = l.Name
	}
	return m, nil
}

// ACRs lists the container registries in the group.
func (c *Client) ACRs() ([]Resource, error) {
	var out []Resource
	err := c.query(fmt.Sprintf("az acr list -g %s", c.Group), executor.DefaultEcho, &out)
	return out, err
}

// Plans lists the app-service plans in the group.
func (c *Client) Plans() ([]Resource, error) {
	var out []Resource
	err := c.query(fmt.Sprintf("az appservice plan list -g %s", c.Group), executor.DefaultEcho, &out)
	return out, err
}

// StorageAccounts lists the storage accounts in the group.
func (c *Client) StorageAccounts() ([]Resource, error) {
	var out []Resource
	err := c.query(fmt.Sprintf("az storage account list -g %s", c.Group), executor.DefaultEcho, &out)
	return out, err
}

// ACRRepos lists repository names in a registry, without the registry prefix.
func (c *Client) ACRRepos(acr string) ([]string, error) {
	var paths []string
	if err := c.query(fmt.Sprintf("az acr repository list -n %s", acr), executor.DefaultEcho, &paths); err != nil {
		return nil, err
	}
	repos := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, name, ok := strings.Cut(p, "/"); ok {
			p = name
		}
		repos = append(repos, p)
	}
	return repos, nil
}

// Manifests lists the image manifests of repo in acr.
func (c *Client) Manifests(acr, repo string) ([]Manifest, error) {
	var out []Manifest
	err := c.query(fmt.Sprintf("az acr repository show-manifests -n %s --repository %s/%s", acr, acr, repo),
		executor.DefaultEcho, &out)
	return out, err
}

// StorageKeys lists the access keys of a storage account.
func (c *Client) StorageKeys(account string) ([]StorageKey, error) {
	var out []StorageKey
	err := c.query(fmt.Sprintf("az storage account keys list -g %s -n %s", c.Group, account),
		executor.DefaultEcho, &out)
	return out, err
}

// FileShares lists the file shares of a storage account.
func (c *Client) FileShares(account string) ([]FileShare, error) {
	var out []FileShare
	err := c.query(fmt.Sprintf("az storage share list --account-name %s ", account), quiet, &out)
	return out, err
}

// Webapps lists the web apps in the group.
func (c *Client) Webapps() ([]Resource, error) {
	var out []Resource
	err := c.query(fmt.Sprintf("az webapp list --resource-group %s", c.Group), executor.DefaultEcho, &out)
	return out, err
}

// WebappMounts lists the storage mounts of a web app keyed by custom id.
func (c *Client) WebappMounts(webapp string) (map[string]WebappMount, error) {
	var out map[string]WebappMount
	err := c.query(fmt.Sprintf("az webapp config storage-account list --resource-group %s --name %s", c.Group, webapp),
		quiet, &out)
	return out, err
}

// DeleteACRImage deletes one image manifest by digest.
func (c *Client) DeleteACRImage(acr, repo, digest string) (string, error) {
	return c.text(fmt.Sprintf("az acr repository delete --yes -n %s --image %s/%s@%s", acr, acr, repo, digest))
}

// MountShare attaches an Azure Files share to a web app.
func (c *Client) MountShare(m Mount) (map[string]WebappMount, error) {
	var out map[string]WebappMount
	err := c.query(fmt.Sprintf("az webapp config storage-account add --resource-group %s --name %s "+
		"--custom-id %s --storage-type AzureFiles --share-name %s --account-name %s "+
		"--access-key %s --mount-path %s",
		c.Group, m.Webapp, m.CustomID, m.Share, m.Account, m.AccessKey, m.Path), executor.DefaultEcho, &out)
	return out, err
}

// ContainerConfig shows the container settings of a web app.
func (c *Client) ContainerConfig(webapp string) ([]Setting, error) {
	var out []Setting
	err := c.query(fmt.Sprintf("az webapp config container show -n %s -g %s", webapp, c.Group),
		executor.DefaultEcho, &out)
	return out, err
}

// CreateWebapp creates a container web app on plan running image.
func (c *Client) CreateWebapp(webapp, plan, image string) (Resource, error) {
	var out Resource
	err := c.query(fmt.Sprintf("az webapp create -n %s -g %s -p %s -i %s", webapp, c.Group, plan, image),
		executor.DefaultEcho, &out)
	return out, err
}

// DeleteWebapp deletes a web app.
func (c *Client) DeleteWebapp(webapp string) (string, error) {
	return c.text(fmt.Sprintf("az webapp delete -n %s -g %s ", webapp, c.Group))
}

// SetWebappImage points a web app at a new container image.
func (c *Client) SetWebappImage(webapp, image string) ([]Setting, error) {
	var out []Setting
	err := c.query(fmt.Sprintf("az webapp config container set -n %s -g %s -c %s", webapp, c.Group, image),
		executor.DefaultEcho, &out)
	return out, err
}

// RestartWebapp restarts a web app.
func (c *Client) RestartWebapp(webapp string) (string, error) {
	return c.text(fmt.Sprintf("az webapp restart -n %s -g %s", webapp, c.Group))
}
