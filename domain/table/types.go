package table

// ColumnType is the semantic type assigned to a sampled CSV column. It is
// decided once per file from a bounded sample and never revised.
type ColumnType string

const (
	TypeNumeric  ColumnType = "numeric"
	TypeDatetime ColumnType = "datetime"
	TypeString   ColumnType = "string"
)

// Cell is one sampled value with explicit absence. A blank field in the CSV
// becomes {Present: false}, never the empty string.
type Cell struct {
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

// AbsentCell is the explicit absent marker
func AbsentCell() Cell { return Cell{} }

// NewCell wraps a non-blank sampled value
func NewCell(value string) Cell { return Cell{Value: value, Present: true} }

// Row maps column name to sampled cell
type Row map[string]Cell

// SampledTable is the bounded metadata view of one stimulus-log file. It is
// immutable after creation; the file's full contents are never parsed here.
type SampledTable struct {
	Filename         string       `json:"filename"`
	Columns          []string     `json:"columns"`
	ColumnTypes      []ColumnType `json:"column_types"`
	SampleRows       []Row        `json:"sample_rows"`
	RowCountEstimate int          `json:"row_count_estimate"`

	// ExperimentName is the convention-derived name token from the filename,
	// or "Unknown" when no convention matched. Used by experiment grouping.
	ExperimentName string `json:"experiment_name"`
}

// TypeOf returns the inferred type for a named column, defaulting to string
// for unknown columns
func (t *SampledTable) TypeOf(column string) ColumnType {
	for i, name := range t.Columns {
		if name == column && i < len(t.ColumnTypes) {
			return t.ColumnTypes[i]
		}
	}
	return TypeString
}

// NumericColumns lists the columns inferred as numeric
func (t *SampledTable) NumericColumns() []string {
	var numeric []string
	for i, name := range t.Columns {
		if i < len(t.ColumnTypes) && t.ColumnTypes[i] == TypeNumeric {
			numeric = append(numeric, name)
		}
	}
	return numeric
}
