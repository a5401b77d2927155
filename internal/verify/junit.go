package verify

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// JUnitTestSuites is the root element of JUnit XML output.
type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite is one replayed session.
type JUnitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is one recorded invocation.
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure describes why a test case failed.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

const suitesName = "azwebapps"

// FormatJUnit writes result as JUnit XML. Each record becomes a test case.
// A replay error that no record accounts for, such as a call past the end of
// the session or a session that failed to load, is reported as an extra
// "replay" case of type ReplayError. A zero timestamp means now.
func FormatJUnit(w io.Writer, result *Result, timestamp time.Time) error {
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	failures, errs := 0, 0
	explained := false
	cases := make([]JUnitTestCase, 0, len(result.Records)+1)
	for _, rec := range result.Records {
		tc := JUnitTestCase{
			Name:      fmt.Sprintf("record[%d]: %s", rec.Index, rec.Command),
			Classname: result.Session,
			Time:      "0.000",
		}
		if rec.Error != "" {
			failures++
			typ := "NotReplayed"
			if rec.Error == result.Error {
				typ = "SequenceMismatch"
				explained = true
			}
			tc.Failure = &JUnitFailure{Message: rec.Error, Type: typ, Content: rec.Error}
		}
		cases = append(cases, tc)
	}

	if result.Error != "" && !explained && failures == 0 {
		errs++
		cases = append(cases, JUnitTestCase{
			Name:      "replay",
			Classname: result.Session,
			Time:      "0.000",
			Failure:   &JUnitFailure{Message: result.Error, Type: "ReplayError", Content: result.Error},
		})
	}

	suites := JUnitTestSuites{
		Name:     suitesName,
		Tests:    len(cases),
		Failures: failures,
		Errors:   errs,
		Time:     "0.000",
		Suites: []JUnitTestSuite{{
			Name:      result.Session,
			Tests:     len(cases),
			Failures:  failures,
			Errors:    errs,
			Time:      "0.000",
			Timestamp: timestamp.Format(time.RFC3339),
			Cases:     cases,
		}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suites); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
