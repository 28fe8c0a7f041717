package ngff

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ngffviewer/pkg/zarr"
)

// ConsolidatedSeries returns the top level groups of a v2 .zmetadata
// document whose attributes carry multiscales.
func ConsolidatedSeries(data []byte) ([]string, error) {
	var doc struct {
		Metadata map[string]zarr.Attributes `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid .zmetadata: %w", err)
	}

	var series []string
	for key, attrs := range doc.Metadata {
		name, ok := strings.CutSuffix(key, "/.zattrs")
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		if hasMultiscales(attrs) {
			series = append(series, name)
		}
	}
	SortSeries(series)
	return series, nil
}

// ConsolidatedSeriesV3 does the same for the consolidated_metadata block of a
// v3 root zarr.json
func ConsolidatedSeriesV3(data []byte) ([]string, error) {
	var doc struct {
		ConsolidatedMetadata *struct {
			Metadata map[string]struct {
				NodeType   string          `json:"node_type"`
				Attributes zarr.Attributes `json:"attributes"`
			} `json:"metadata"`
		} `json:"consolidated_metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid zarr.json: %w", err)
	}
	if doc.ConsolidatedMetadata == nil {
		return nil, nil
	}

	var series []string
	for key, node := range doc.ConsolidatedMetadata.Metadata {
		if strings.Contains(key, "/") || node.NodeType != "group" {
			continue
		}
		if hasMultiscales(node.Attributes) {
			series = append(series, key)
		}
	}
	SortSeries(series)
	return series, nil
}

func hasMultiscales(raw zarr.Attributes) bool {
	attrs, err := ResolveAttrs(raw)
	return err == nil && attrs.IsMultiscales()
}

// SortSeries orders series names numerically when both names are integers,
// lexically otherwise
func SortSeries(series []string) {
	sort.SliceStable(series, func(i, j int) bool {
		a, errA := strconv.Atoi(series[i])
		b, errB := strconv.Atoi(series[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if errA == nil || errB == nil {
			return errA == nil
		}
		return series[i] < series[j]
	})
}
