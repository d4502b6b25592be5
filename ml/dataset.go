package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrDatasetNotFound = errors.New("training dataset not found")

type Example struct {
	Sequence string
	Label    int
}

func LoadDataset(path string) ([]Example, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrDatasetNotFound, path)
		}
		return nil, err
	}
	defer file.Close()
	return ReadDataset(file)
}

// ReadDataset parses a headed CSV with at least "sequence" and "label"
// columns. A UTF-8 or UTF-16 byte order mark is honoured.
func ReadDataset(r io.Reader) ([]Example, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, err
	}
	seqCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "sequence":
			seqCol = i
		case "label":
			labelCol = i
		}
	}
	if seqCol < 0 || labelCol < 0 {
		return nil, errors.New(`dataset must have "sequence" and "label" columns`)
	}

	examples := make([]Example, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if seqCol >= len(record) || labelCol >= len(record) {
			return nil, fmt.Errorf("line %d: missing columns", line)
		}
		seq := Clean(record[seqCol])
		if seq == "" {
			return nil, fmt.Errorf("line %d: empty sequence", line)
		}
		label, err := ParseLabel(record[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, Example{Sequence: seq, Label: label})
	}
	if len(examples) == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return examples, nil
}

func ParseLabel(value string) (int, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case LabelMembraneBound, "membrane", "true", "yes":
		return 1, nil
	case LabelSoluble, "false", "no":
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || (f != 0 && f != 1) {
		return 0, fmt.Errorf("label %q is not binary", value)
	}
	return int(f), nil
}

func BuildTrainingSet(examples []Example, extractor Extractor) (features [][]float64, labels []int) {
	features = make([][]float64, 0, len(examples))
	labels = make([]int, 0, len(examples))
	for _, example := range examples {
		vector, _ := extractor.Featurize(example.Sequence)
		features = append(features, vector.Slice())
		labels = append(labels, example.Label)
	}
	return features, labels
}
