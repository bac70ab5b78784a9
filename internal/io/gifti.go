package io

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	goio "io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/carbocation/pfx"
	"github.com/gonum/matrix/mat64"
)

// ErrUnsupportedGifti is returned for GIFTI encodings and data types this reader does not handle
var ErrUnsupportedGifti = errors.New("unsupported gifti data array")

type giftiFile struct {
	XMLName    xml.Name         `xml:"GIFTI"`
	Version    string           `xml:"Version,attr"`
	MetaData   []giftiMD        `xml:"MetaData>MD"`
	DataArrays []giftiDataArray `xml:"DataArray"`
}

type giftiMD struct {
	Name  string `xml:"Name"`
	Value string `xml:"Value"`
}

type giftiDataArray struct {
	Intent         string    `xml:"Intent,attr"`
	DataType       string    `xml:"DataType,attr"`
	Dimensionality int       `xml:"Dimensionality,attr"`
	Dim0           int       `xml:"Dim0,attr"`
	Dim1           int       `xml:"Dim1,attr"`
	Encoding       string    `xml:"Encoding,attr"`
	Endian         string    `xml:"Endian,attr"`
	ExternalFile   string    `xml:"ExternalFileName,attr"`
	MetaData       []giftiMD `xml:"MetaData>MD"`
	Data           string    `xml:"Data"`
}

// DataArray is one decoded GIFTI data array
type DataArray struct {
	Intent   string
	DataType string
	Dims     []int
	Meta     map[string]string
	Data     []float64
}

// Gifti holds the data arrays of a .gii file in file order
type Gifti struct {
	Version string
	Meta    map[string]string
	Arrays  []DataArray
}

// ReadGifti reads a GIFTI file with ASCII, Base64Binary or GZipBase64Binary encoded arrays
func ReadGifti(path string) (*Gifti, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	g, err := decodeGifti(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return g, nil
}

func decodeGifti(b []byte) (*Gifti, error) {
	var raw giftiFile
	if err := xml.Unmarshal(b, &raw); err != nil {
		return nil, pfx.Err(err)
	}

	g := &Gifti{
		Version: raw.Version,
		Meta:    metaMap(raw.MetaData),
		Arrays:  make([]DataArray, len(raw.DataArrays)),
	}

	for i, da := range raw.DataArrays {
		arr, err := decodeDataArray(da)
		if err != nil {
			return nil, fmt.Errorf("data array %d: %w", i, err)
		}
		g.Arrays[i] = arr
	}

	return g, nil
}

func metaMap(md []giftiMD) map[string]string {
	m := make(map[string]string, len(md))
	for _, kv := range md {
		m[strings.TrimSpace(kv.Name)] = strings.TrimSpace(kv.Value)
	}

	return m
}

func decodeDataArray(da giftiDataArray) (DataArray, error) {
	if da.ExternalFile != "" {
		return DataArray{}, fmt.Errorf("external file %q: %w", da.ExternalFile, ErrUnsupportedGifti)
	}

	dims := []int{da.Dim0}
	if da.Dimensionality > 1 {
		dims = append(dims, da.Dim1)
	}

	n := 1
	for _, d := range dims {
		n *= d
	}

	values, err := decodeValues(da, n)
	if err != nil {
		return DataArray{}, err
	}

	return DataArray{
		Intent:   da.Intent,
		DataType: da.DataType,
		Dims:     dims,
		Meta:     metaMap(da.MetaData),
		Data:     values,
	}, nil
}

func decodeValues(da giftiDataArray, n int) ([]float64, error) {
	text := strings.TrimSpace(da.Data)

	if da.Encoding == "ASCII" {
		fields := strings.Fields(text)
		if len(fields) != n {
			return nil, fmt.Errorf("%d ASCII values, want %d", len(fields), n)
		}

		values := make([]float64, n)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, pfx.Err(err)
			}
			values[i] = v
		}

		return values, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
	if err != nil {
		return nil, pfx.Err(err)
	}

	switch da.Encoding {
	case "Base64Binary":
	case "GZipBase64Binary":
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, pfx.Err(err)
		}
		defer zr.Close()

		if raw, err = goio.ReadAll(zr); err != nil {
			return nil, pfx.Err(err)
		}
	default:
		return nil, fmt.Errorf("encoding %q: %w", da.Encoding, ErrUnsupportedGifti)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if da.Endian == "BigEndian" {
		order = binary.BigEndian
	}

	return decodeBinary(raw, da.DataType, order, n)
}

func decodeBinary(raw []byte, dataType string, order binary.ByteOrder, n int) ([]float64, error) {
	var size int
	switch dataType {
	case "NIFTI_TYPE_UINT8":
		size = 1
	case "NIFTI_TYPE_INT32", "NIFTI_TYPE_FLOAT32":
		size = 4
	case "NIFTI_TYPE_FLOAT64":
		size = 8
	default:
		return nil, fmt.Errorf("data type %q: %w", dataType, ErrUnsupportedGifti)
	}

	if len(raw) != n*size {
		return nil, fmt.Errorf("%d bytes of %s, want %d values", len(raw), dataType, n)
	}

	values := make([]float64, n)
	for i := range values {
		b := raw[i*size : (i+1)*size]

		switch dataType {
		case "NIFTI_TYPE_UINT8":
			values[i] = float64(b[0])
		case "NIFTI_TYPE_INT32":
			values[i] = float64(int32(order.Uint32(b)))
		case "NIFTI_TYPE_FLOAT32":
			values[i] = float64(math.Float32frombits(order.Uint32(b)))
		case "NIFTI_TYPE_FLOAT64":
			values[i] = math.Float64frombits(order.Uint64(b))
		}
	}

	return values, nil
}

// TimeSeries stacks the 1-D arrays of a metric file into a vertices-by-arrays matrix, so each
// array (one per time point) becomes a column
func (g *Gifti) TimeSeries() (*mat64.Dense, error) {
	if len(g.Arrays) == 0 || len(g.Arrays[0].Data) == 0 {
		return nil, calc.ErrEmptyInput
	}

	vertices := len(g.Arrays[0].Data)
	m := mat64.NewDense(vertices, len(g.Arrays), nil)

	for t, arr := range g.Arrays {
		if len(arr.Data) != vertices {
			return nil, fmt.Errorf("array %d has %d values, array 0 has %d: %w", t, len(arr.Data), vertices, calc.ErrShapeMismatch)
		}

		for v, value := range arr.Data {
			m.Set(v, t, value)
		}
	}

	return m, nil
}

// Labels returns the label keys of the first data array of a label file
func (g *Gifti) Labels() ([]calc.Label, error) {
	if len(g.Arrays) == 0 || len(g.Arrays[0].Data) == 0 {
		return nil, calc.ErrEmptyInput
	}

	return calc.NormalizeLabels(g.Arrays[0].Data)
}
