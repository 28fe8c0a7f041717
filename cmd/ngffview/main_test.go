package main

import "testing"

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("800X600")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if w != 800 || h != 600 {
		t.Errorf("Expected 800x600, got %vx%v", w, h)
	}

	for _, bad := range []string{"800", "ax600", "0x600"} {
		if _, _, err := parseSize(bad); err == nil {
			t.Errorf("Expected %q to fail", bad)
		}
	}
}

func TestFlagSources(t *testing.T) {
	sources, err := flagSources([]string{"a.zarr", "b.zarr"}, []string{"1"}, nil, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(sources))
	}
	if sources[0].ChannelAxis == nil || *sources[0].ChannelAxis != 1 {
		t.Errorf("Expected channel axis 1 on the first source, got %v", sources[0].ChannelAxis)
	}
	if sources[1].ChannelAxis != nil {
		t.Errorf("Expected no channel axis on the second source")
	}
	if !sources[0].Label || !sources[1].Label {
		t.Errorf("Expected the label flag on every source")
	}

	if _, err := flagSources([]string{"a.zarr"}, []string{"1", "2"}, nil, false); err == nil {
		t.Errorf("Expected extra channel axis flags to fail")
	}
	if _, err := flagSources([]string{"a.zarr"}, nil, []string{"1,2"}, false); err == nil {
		t.Errorf("Expected an invalid model matrix to fail")
	}
}
