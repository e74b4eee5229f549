package track

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/a-bouts/nav-sim/latlon"
)

// ContentType of the compressed encoding.
const ContentType = "application/x-msgpack+zstd"

// columns is the encoded form of a track: one array per coordinate.
type columns struct {
	Lat []float64 `msgpack:"lat"`
	Lon []float64 `msgpack:"lon"`
}

// Save writes points as msgpack compressed with zstd.
func Save(w io.Writer, points []latlon.LatLon) error {
	c := columns{
		Lat: make([]float64, len(points)),
		Lon: make([]float64, len(points)),
	}
	for i, p := range points {
		c.Lat[i] = p.Lat
		c.Lon[i] = p.Lon
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	if err := msgpack.NewEncoder(zw).Encode(c); err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zstd writer: %w", err)
	}
	return nil
}

func Load(r io.Reader) ([]latlon.LatLon, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var c columns
	if err := msgpack.NewDecoder(zr).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode track: %w", err)
	}
	if len(c.Lat) != len(c.Lon) {
		return nil, fmt.Errorf("track has %d latitudes and %d longitudes", len(c.Lat), len(c.Lon))
	}

	points := make([]latlon.LatLon, len(c.Lat))
	for i := range c.Lat {
		points[i] = latlon.LatLon{Lat: c.Lat[i], Lon: c.Lon[i]}
	}
	return points, nil
}

func Marshal(points []latlon.LatLon) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(&buf, points); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func Unmarshal(data []byte) ([]latlon.LatLon, error) {
	return Load(bytes.NewReader(data))
}
