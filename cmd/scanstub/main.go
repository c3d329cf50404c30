package main

import (
	"encoding/csv"
	"encoding/json"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bioprep/domain/core"
	"bioprep/domain/files"
	"bioprep/ports"
)

// scanstub is a development stand-in for the remote analysis service. It
// answers the scan and analyze endpoints with availability derived from the
// uploaded payload, so the assembler can be exercised without the real
// service running.

type subjectSets struct {
	metrics    map[string]bool
	markers    map[string]bool
	conditions map[string]bool
	pulse      bool
}

func main() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/scan", handleScan)
	r.Post("/analyze", handleAnalyze)
	r.Get("/plots/{name}", handlePlot)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	log.Printf("[scanstub] listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "malformed multipart body", http.StatusBadRequest)
		return
	}

	perSubject := make(map[core.SubjectID]*subjectSets)
	ensure := func(subject core.SubjectID) *subjectSets {
		if perSubject[subject] == nil {
			perSubject[subject] = &subjectSets{
				metrics:    make(map[string]bool),
				markers:    make(map[string]bool),
				conditions: make(map[string]bool),
			}
		}
		return perSubject[subject]
	}

	// Metrics come from the biometric path suffixes
	var paths []string
	if raw := r.FormValue("biometric_paths"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &paths); err != nil {
			http.Error(w, "malformed biometric_paths", http.StatusBadRequest)
			return
		}
	}
	for _, p := range paths {
		f := files.RawFile{Name: lastSegment(p), RelativePath: p}
		sets := ensure(f.Subject())
		if metric := files.MetricNameFromFile(f.Name); metric != "" {
			if isPulseChannel(metric) {
				sets.pulse = true
			} else {
				sets.metrics[strings.ToUpper(metric)] = true
			}
		}
	}

	// Markers and conditions come from the uploaded event-marker files
	for _, header := range r.MultipartForm.File["event_marker_files"] {
		markers, conditions := readMarkerFile(header)
		subject := subjectFromMarkerName(header.Filename)
		sets := ensure(subject)
		for m := range markers {
			sets.markers[m] = true
		}
		for c := range conditions {
			sets.conditions[c] = true
		}
	}

	response := buildScanResponse(perSubject, r.FormValue("stimulus_metadata"))
	writeJSON(w, response)
}

func buildScanResponse(perSubject map[core.SubjectID]*subjectSets, stimulusMetadata string) map[string]any {
	subjects := make([]core.SubjectID, 0, len(perSubject))
	for subject := range perSubject {
		if subject != "" {
			subjects = append(subjects, subject)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	aggregateMetrics := make(map[string]bool)
	aggregateMarkers := make(map[string]bool)
	aggregateConditions := make(map[string]bool)
	availability := make(map[core.SubjectID]map[string]any)
	for subject, sets := range perSubject {
		if subject == "" {
			continue
		}
		for m := range sets.metrics {
			aggregateMetrics[m] = true
		}
		for m := range sets.markers {
			aggregateMarkers[m] = true
		}
		for c := range sets.conditions {
			aggregateConditions[c] = true
		}
		availability[subject] = map[string]any{
			"metrics":               sorted(sets.metrics),
			"eventMarkers":          sorted(sets.markers),
			"conditions":            sorted(sets.conditions),
			"hasHighFrequencyPulse": sets.pulse,
		}
	}

	response := map[string]any{
		"metrics":      sorted(aggregateMetrics),
		"eventMarkers": sorted(aggregateMarkers),
		"conditions":   sorted(aggregateConditions),
	}
	if len(subjects) > 1 {
		response["subjects"] = subjects
		response["subjectAvailability"] = availability
		response["batchMode"] = true
	}

	// Echo the stimulus metadata back as discovery data
	if stimulusMetadata != "" {
		var metadata []ports.StimulusFileMetadata
		if err := json.Unmarshal([]byte(stimulusMetadata), &metadata); err == nil && len(metadata) > 0 {
			filesBySubject := make(map[core.SubjectID][]string)
			for _, m := range metadata {
				filesBySubject[m.Subject] = append(filesBySubject[m.Subject], m.Table.Filename)
			}
			withData := make([]core.SubjectID, 0, len(filesBySubject))
			for subject := range filesBySubject {
				withData = append(withData, subject)
			}
			sort.Slice(withData, func(i, j int) bool { return withData[i] < withData[j] })
			response["stimulusLogData"] = map[string]any{
				"hasFiles":         true,
				"filesBySubject":   filesBySubject,
				"subjectsWithData": withData,
			}
		}
	}
	return response
}

func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "malformed multipart body", http.StatusBadRequest)
		return
	}
	if len(r.MultipartForm.File["metric_files"]) == 0 {
		http.Error(w, "no metric files provided", http.StatusBadRequest)
		return
	}

	var metrics []string
	_ = json.Unmarshal([]byte(r.FormValue("selected_metrics")), &metrics)

	plots := make([]map[string]string, 0, len(metrics))
	for _, metric := range metrics {
		lower := strings.ToLower(metric)
		plots = append(plots, map[string]string{
			"name":     metric + " over time",
			"url":      "/plots/" + lower + ".png",
			"filename": lower + ".png",
		})
	}

	writeJSON(w, map[string]any{
		"results": map[string]any{
			"analysis_method": r.FormValue("analysis_method"),
			"plot_type":       r.FormValue("plot_type"),
			"analyze_hrv":     r.FormValue("analyze_hrv"),
		},
		"plots":              plots,
		"eventMarkerSummary": "stub analysis complete",
	})
}

// handlePlot returns a tiny valid PNG so figure saving can be exercised
func handlePlot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	w.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
}

// readMarkerFile extracts distinct marker and condition values from an
// uploaded event-marker CSV, using the header to locate the columns
func readMarkerFile(header *multipart.FileHeader) (map[string]bool, map[string]bool) {
	markers := make(map[string]bool)
	conditions := make(map[string]bool)

	file, err := header.Open()
	if err != nil {
		return markers, conditions
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return markers, conditions
	}

	markerCol, conditionCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "event", "marker", "event_marker":
			markerCol = i
		case "condition":
			conditionCol = i
		}
	}

	for _, record := range records[1:] {
		if markerCol >= 0 && markerCol < len(record) && record[markerCol] != "" {
			markers[record[markerCol]] = true
		}
		if conditionCol >= 0 && conditionCol < len(record) && record[conditionCol] != "" {
			conditions[record[conditionCol]] = true
		}
	}
	return markers, conditions
}

// subjectFromMarkerName recovers the subject from the P01_event_markers.csv
// naming convention
func subjectFromMarkerName(filename string) core.SubjectID {
	if idx := strings.Index(filename, "_"); idx > 0 {
		return core.SubjectID(filename[:idx])
	}
	return ""
}

func isPulseChannel(metric string) bool {
	switch strings.ToUpper(metric) {
	case "PI", "PR", "PG":
		return true
	}
	return false
}

func lastSegment(path string) string {
	parts := strings.Split(path, "/")
	return parts[len(parts)-1]
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[scanstub] encode failed: %v", err)
	}
}
