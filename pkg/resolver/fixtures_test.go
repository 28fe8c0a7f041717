package resolver

import (
	"encoding/binary"
	"fmt"
	"strings"

	"ngffviewer/pkg/logger"
	"ngffviewer/pkg/store"
)

func newTestResolver(st store.Store) (*Resolver, *logger.MemLogger) {
	log := &logger.MemLogger{}
	return &Resolver{
		OpenStore: func(string) (store.Store, error) { return st, nil },
		Logger:    log,
	}, log
}

func putGroup(st *store.MemoryStore, path string, attrs string) {
	st.Put(store.JoinKey(path, ".zgroup"), []byte(`{"zarr_format":2}`))
	if attrs != "" {
		st.Put(store.JoinKey(path, ".zattrs"), []byte(attrs))
	}
}

func putArray(st *store.MemoryStore, path string, dtype string, shape []int, chunks []int) {
	st.PutJSON(store.JoinKey(path, ".zarray"), map[string]interface{}{
		"zarr_format": 2,
		"shape":       shape,
		"chunks":      chunks,
		"dtype":       dtype,
		"compressor":  nil,
		"fill_value":  0,
		"order":       "C",
		"filters":     nil,
	})
}

func uint16Chunk(values []uint16) []byte {
	buf := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// multiscalesAttrs declares datasets "0".."n-1" with the given axes JSON
func multiscalesAttrs(axes string, levels int, extra string) string {
	datasets := make([]string, levels)
	for i := range datasets {
		s := float64(int(1) << i)
		datasets[i] = fmt.Sprintf(`{"path":"%d","coordinateTransformations":[{"type":"scale","scale":[1,%g,%g]}]}`, i, 0.5*s, 0.5*s)
	}
	axesField := ""
	if axes != "" {
		axesField = `"axes":` + axes + `,`
	}
	doc := fmt.Sprintf(`{"multiscales":[{"version":"0.4",%s"datasets":[%s]}]`, axesField, strings.Join(datasets, ","))
	if extra != "" {
		doc += "," + extra
	}
	return doc + "}"
}

const cyxAxes = `[{"name":"c","type":"channel"},{"name":"y","type":"space","unit":"micrometer"},{"name":"x","type":"space","unit":"micrometer"}]`

// putImage writes a two level c/y/x image with the given channel count
func putImage(st *store.MemoryStore, path string, channels int, extra string) {
	putGroup(st, path, multiscalesAttrs(cyxAxes, 2, extra))
	putArray(st, store.JoinKey(path, "0"), "<u2", []int{channels, 64, 64}, []int{1, 32, 32})
	putArray(st, store.JoinKey(path, "1"), "<u2", []int{channels, 32, 32}, []int{1, 32, 32})
}
