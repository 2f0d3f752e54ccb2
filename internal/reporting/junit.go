package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/modelmux/quorum/internal/models"
)

// failingScore is the boundary below which a successful response is still
// reported as a JUnit failure. It matches the "Poor" interpretation band.
const failingScore = 50.0

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one comparison round.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one provider's response.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents a response that scored below the failing bound.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError represents a provider call that errored or timed out.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts one comparison round to JUnit XML. Every provider
// becomes a test case under a single suite: provider errors map to <error>,
// scores under the failing bound map to <failure>.
func ConvertToJUnit(name string, results []models.ScoredResult, at time.Time) *JUnitTestSuites {
	var totalMs int64
	failures := 0
	errCount := 0
	best := ""
	bestScore := 0.0

	for _, r := range results {
		totalMs += r.ResponseTimeMs
		switch {
		case r.Failed():
			errCount++
		case r.Score < failingScore:
			failures++
		}
		if !r.Failed() && (best == "" || r.Score > bestScore) {
			best = r.Key()
			bestScore = r.Score
		}
	}
	durationSec := float64(totalMs) / 1000.0

	suite := JUnitTestSuite{
		Name:      name,
		Tests:     len(results),
		Failures:  failures,
		Errors:    errCount,
		Time:      durationSec,
		Timestamp: at.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "providers", Value: fmt.Sprintf("%d", len(results))},
			{Name: "bestProvider", Value: best},
			{Name: "bestScore", Value: fmt.Sprintf("%.1f", bestScore)},
		},
	}

	for _, r := range results {
		suite.TestCases = append(suite.TestCases, convertResult(name, r))
	}

	return &JUnitTestSuites{
		Tests:      len(results),
		Failures:   failures,
		Errors:     errCount,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertResult(classname string, r models.ScoredResult) JUnitTestCase {
	tc := JUnitTestCase{
		Name:      r.Key(),
		Classname: classname,
		Time:      float64(r.ResponseTimeMs) / 1000.0,
	}

	switch {
	case r.Failed():
		tc.Error = &JUnitError{
			Message: r.Error,
			Type:    "ProviderError",
		}
	case r.Score < failingScore:
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%s: score=%.1f below %.0f", r.Key(), r.Score, failingScore),
			Type:    "LowScore",
			Body:    InterpretScore(r.Score),
		}
	}

	return tc
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(suites *JUnitTestSuites, path string) error {
	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
