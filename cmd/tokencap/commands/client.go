package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tokencap/tokencap/internal/middleware"
)

var (
	gatewayURL string
	projectID  string
	outputJSON bool
	verbose    bool
)

// SetGateway points the CLI at a gateway and picks the project the
// commands operate on. An empty project rides the gateway default.
func SetGateway(url, project string) {
	gatewayURL = strings.TrimRight(url, "/")
	projectID = project
}

// SetOutputJSON sets the output format preference
func SetOutputJSON(v bool) {
	outputJSON = v
}

// SetVerbose sets verbose output
func SetVerbose(v bool) {
	verbose = v
}

// HTTPClient is a configured HTTP client for gateway calls
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// APIRequest makes a request to the gateway. The selected project
// travels in the attribution header, so it resolves exactly like a
// proxied completion call would.
func APIRequest(method, endpoint string, body interface{}) (*http.Response, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("gateway URL required")
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, gatewayURL+endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if projectID != "" {
		req.Header.Set(middleware.ProjectHeader, projectID)
	}

	if verbose {
		fmt.Printf("Making %s request to: %s\n", method, gatewayURL+endpoint)
	}

	return HTTPClient.Do(req)
}

// getJSON fetches an endpoint and decodes the 200 response into out.
func getJSON(endpoint string, out interface{}) error {
	resp, err := APIRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError turns a gateway error envelope into a CLI error.
func apiError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error.Message == "" {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", envelope.Error.Type, envelope.Error.Message)
}

// projectLabel names the project for human-readable confirmations.
func projectLabel() string {
	if projectID == "" {
		return "default project"
	}
	return "project " + projectID
}

// OutputTable outputs data in table format
func OutputTable(headers []string, rows [][]string) {
	if outputJSON {
		// Convert table to JSON structure
		var jsonRows []map[string]string
		for _, row := range rows {
			jsonRow := make(map[string]string)
			for i, cell := range row {
				if i < len(headers) {
					jsonRow[headers[i]] = cell
				}
			}
			jsonRows = append(jsonRows, jsonRow)
		}
		OutputJSON(jsonRows)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	// Print headers
	for i, header := range headers {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, header)
	}
	_, _ = fmt.Fprintln(w)

	// Print separator
	for i := range headers {
		if i > 0 {
			_, _ = fmt.Fprint(w, "\t")
		}
		_, _ = fmt.Fprint(w, "---")
	}
	_, _ = fmt.Fprintln(w)

	// Print rows
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				_, _ = fmt.Fprint(w, "\t")
			}
			_, _ = fmt.Fprint(w, cell)
		}
		_, _ = fmt.Fprintln(w)
	}

	_ = w.Flush()
}

// OutputJSON outputs data in JSON format
func OutputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}
