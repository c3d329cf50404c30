package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"bioprep/domain/availability"
	"bioprep/domain/core"
	"bioprep/domain/files"
	"bioprep/domain/request"
	"bioprep/internal/errors"
	"bioprep/ports"
)

// Client talks to the remote scan/analysis service over multipart HTTP. One
// request per operation, no retry: a failed call surfaces the raw error text
// and the user decides what to do next.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a service client for the given base URL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Scan uploads the discovery payload: biometric file paths, event-marker
// files, and stimulus-log metadata. Raw stimulus bytes never leave the
// machine at this stage.
func (c *Client) Scan(ctx context.Context, req ports.ScanRequest) (*ports.ScanResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	paths := make([]string, 0, len(req.BiometricFiles)+len(req.RespirationFiles))
	for _, f := range req.BiometricFiles {
		paths = append(paths, f.RelativePath)
	}
	for _, f := range req.RespirationFiles {
		paths = append(paths, f.RelativePath)
	}
	if err := writeJSONField(writer, fieldBiometricPaths, paths); err != nil {
		return nil, err
	}

	if len(req.Subjects) > 1 {
		if err := writeJSONField(writer, fieldSubjects, req.Subjects); err != nil {
			return nil, err
		}
	}

	for _, f := range req.EventMarkerFiles {
		if err := attachFile(writer, fieldEventMarkerFiles, f); err != nil {
			// One unreadable marker file does not abort discovery
			log.Printf("[ScanClient] skipping unreadable event marker file %s: %v", f.Name, err)
		}
	}

	if len(req.StimulusMetadata) > 0 {
		if err := writeJSONField(writer, fieldStimulusMetadata, req.StimulusMetadata); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField(fieldUploadPulseFlag, strconv.FormatBool(req.UploadPulseFlag)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/scan", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	return parseScanResult(body), nil
}

// Submit uploads the final analysis request: the resolved data files plus the
// configuration as JSON fields
func (c *Client) Submit(ctx context.Context, req ports.SubmissionRequest) (*ports.SubmissionResult, error) {
	structure := req.Structure
	config := req.Configuration
	if structure == nil || config == nil {
		return nil, errors.InvalidInput("submission requires a scanned folder and a configuration")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range structure.EventMarkers {
		if subjectSelected(config.SelectedSubjects, f.Subject()) {
			if err := attachFile(writer, fieldEventMarkerFiles, f); err != nil {
				return nil, err
			}
		}
	}

	metricFiles, err := resolveMetricFiles(structure, config)
	if err != nil {
		return nil, err
	}
	for _, f := range metricFiles {
		if err := attachFile(writer, fieldMetricFiles, f); err != nil {
			return nil, err
		}
	}

	for _, f := range structure.StimulusLogs {
		if subjectSelected(config.SelectedSubjects, f.Subject()) {
			if err := attachFile(writer, fieldStimulusFiles, f); err != nil {
				return nil, err
			}
		}
	}

	mappings := make([]mappingPayload, 0, len(config.ColumnMappings))
	for key, mapping := range config.ColumnMappings {
		mappings = append(mappings, mappingPayload{Subject: key.Subject, Filename: key.Filename, Mapping: mapping})
	}
	sort.Slice(mappings, func(i, j int) bool {
		if mappings[i].Subject != mappings[j].Subject {
			return mappings[i].Subject < mappings[j].Subject
		}
		return mappings[i].Filename < mappings[j].Filename
	})

	analyzeHRV := false
	for _, metric := range config.SelectedMetrics {
		if availability.IsDerivedMetric(metric) {
			analyzeHRV = true
		}
	}

	jsonFields := map[string]any{
		fieldSelectedMetrics: config.SelectedMetrics,
		fieldEventWindows:    config.EventWindows,
		fieldColumnMappings:  mappings,
	}
	for field, value := range jsonFields {
		if err := writeJSONField(writer, field, value); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField(fieldAnalysisMethod, config.AnalysisMethod); err != nil {
		return nil, err
	}
	if err := writer.WriteField(fieldPlotType, config.PlotType); err != nil {
		return nil, err
	}
	if err := writer.WriteField(fieldAnalyzeHRV, strconv.FormatBool(analyzeHRV)); err != nil {
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/analyze", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	return parseSubmissionResult(body), nil
}

// FetchPlot downloads one generated figure by URL. Relative URLs resolve
// against the service base URL.
func (c *Client) FetchPlot(ctx context.Context, url string) ([]byte, error) {
	if strings.HasPrefix(url, "/") {
		url = c.baseURL + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("analysis", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("analysis", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.ExternalServiceError("analysis",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	return body, nil
}

// post issues one multipart POST and returns the raw response body
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ExternalServiceError("analysis", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalServiceError("analysis", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.ExternalServiceError("analysis",
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}
	return respBody, nil
}

// resolveMetricFiles finds the signal file backing each selected metric by
// the _<METRIC>.csv suffix convention, per selected subject. The derived HRV
// metric resolves to the pulse-channel files instead of a file of its own.
func resolveMetricFiles(structure *files.FileStructure, config *request.Configuration) ([]files.RawFile, error) {
	signalFiles := make([]files.RawFile, 0, len(structure.Biometric)+len(structure.Respiration))
	signalFiles = append(signalFiles, structure.Biometric...)
	signalFiles = append(signalFiles, structure.Respiration...)

	var resolved []files.RawFile
	for _, metric := range config.SelectedMetrics {
		if availability.IsDerivedMetric(metric) {
			resolved = append(resolved, pulseChannelFiles(structure, config.SelectedSubjects)...)
			continue
		}

		suffix := "_" + strings.ToLower(metric) + ".csv"
		found := false
		for _, f := range signalFiles {
			if !subjectSelected(config.SelectedSubjects, f.Subject()) {
				continue
			}
			if strings.HasSuffix(strings.ToLower(f.Name), suffix) {
				resolved = append(resolved, f)
				found = true
			}
		}
		if !found {
			return nil, core.NewMetricFileError(metric)
		}
	}
	return resolved, nil
}

// pulseChannelFiles collects the selected subjects' photoplethysmography
// channel files, up to three per subject
func pulseChannelFiles(structure *files.FileStructure, selected []core.SubjectID) []files.RawFile {
	var out []files.RawFile
	for _, f := range structure.Biometric {
		if !subjectSelected(selected, f.Subject()) {
			continue
		}
		lower := strings.ToLower(f.Name)
		for _, suffix := range files.PulseChannelSuffixes {
			if strings.HasSuffix(lower, suffix) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// subjectSelected treats files without a subject folder as belonging to every
// selection (single-subject layouts have no subject segment)
func subjectSelected(selected []core.SubjectID, subject core.SubjectID) bool {
	if subject == "" {
		return true
	}
	for _, s := range selected {
		if s == subject {
			return true
		}
	}
	return false
}

// attachFile streams one local file into the multipart body
func attachFile(writer *multipart.Writer, field string, f files.RawFile) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return errors.ParseError(f.Name, err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, f.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// writeJSONField marshals a value into one multipart form field
func writeJSONField(writer *multipart.Writer, field string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return writer.WriteField(field, string(encoded))
}

// parseScanResult reads the scan response tolerantly: absent or oddly shaped
// sections simply stay empty rather than failing the whole scan
func parseScanResult(body []byte) *ports.ScanResult {
	result := &ports.ScanResult{
		Metrics:      stringList(gjson.GetBytes(body, "metrics")),
		EventMarkers: stringList(gjson.GetBytes(body, "eventMarkers")),
		Conditions:   stringList(gjson.GetBytes(body, "conditions")),
		BatchMode:    gjson.GetBytes(body, "batchMode").Bool(),
	}

	for _, s := range gjson.GetBytes(body, "subjects").Array() {
		result.Subjects = append(result.Subjects, core.SubjectID(s.String()))
	}

	if avail := gjson.GetBytes(body, "subjectAvailability"); avail.Exists() {
		result.SubjectAvailability = make(availability.SubjectMap)
		avail.ForEach(func(key, value gjson.Result) bool {
			result.SubjectAvailability[core.SubjectID(key.String())] = availability.SubjectAvailability{
				Metrics:               stringList(value.Get("metrics")),
				EventMarkers:          stringList(value.Get("eventMarkers")),
				Conditions:            stringList(value.Get("conditions")),
				HasHighFrequencyPulse: value.Get("hasHighFrequencyPulse").Bool(),
			}
			return true
		})
	}

	if stim := gjson.GetBytes(body, "stimulusLogData"); stim.Exists() {
		data := &ports.StimulusLogData{
			HasFiles:       stim.Get("hasFiles").Bool(),
			FilesBySubject: make(map[core.SubjectID][]string),
		}
		stim.Get("filesBySubject").ForEach(func(key, value gjson.Result) bool {
			data.FilesBySubject[core.SubjectID(key.String())] = stringList(value)
			return true
		})
		for _, s := range stim.Get("subjectsWithData").Array() {
			data.SubjectsWithData = append(data.SubjectsWithData, core.SubjectID(s.String()))
		}
		result.StimulusLogs = data
	}

	return result
}

// parseSubmissionResult reads the analysis response; results and the marker
// summary pass through opaquely
func parseSubmissionResult(body []byte) *ports.SubmissionResult {
	result := &ports.SubmissionResult{
		EventMarkerSummary: gjson.GetBytes(body, "eventMarkerSummary").String(),
	}

	if r := gjson.GetBytes(body, "results"); r.Exists() {
		if m, ok := r.Value().(map[string]any); ok {
			result.Results = m
		}
	}

	for _, p := range gjson.GetBytes(body, "plots").Array() {
		result.Plots = append(result.Plots, ports.PlotDescriptor{
			Name:     p.Get("name").String(),
			URL:      p.Get("url").String(),
			Filename: p.Get("filename").String(),
		})
	}

	return result
}

func stringList(value gjson.Result) []string {
	var out []string
	for _, item := range value.Array() {
		out = append(out, item.String())
	}
	return out
}
