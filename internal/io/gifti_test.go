package io

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/KyungWonPark/HCPTimeSeries/internal/calc"
	"github.com/google/go-cmp/cmp"
)

func gzipBase64(t *testing.T, data interface{}) string {
	t.Helper()

	var raw bytes.Buffer
	if err := binary.Write(&raw, binary.LittleEndian, data); err != nil {
		t.Fatal(err)
	}

	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	return base64.StdEncoding.EncodeToString(z.Bytes())
}

func giftiXML(arrays ...string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE GIFTI SYSTEM "http://www.nitrc.org/frs/download.php/115/gifti.dtd">
<GIFTI Version="1.0" NumberOfDataArrays="` + fmt.Sprint(len(arrays)) + `">
  <MetaData>
    <MD><Name><![CDATA[AnatomicalStructurePrimary]]></Name><Value><![CDATA[CortexLeft]]></Value></MD>
  </MetaData>
  <LabelTable>
    <Label Key="0" Red="1" Green="1" Blue="1" Alpha="0"><![CDATA[???]]></Label>
  </LabelTable>
` + strings.Join(arrays, "\n") + `
</GIFTI>`
}

func dataArray(dataType, encoding string, dim0 int, data string) string {
	return fmt.Sprintf(`  <DataArray Intent="NIFTI_INTENT_NONE" DataType="%s" ArrayIndexingOrder="RowMajorOrder" Dimensionality="1" Dim0="%d" Encoding="%s" Endian="LittleEndian" ExternalFileName="" ExternalFileOffset="">
    <MetaData><MD><Name><![CDATA[Name]]></Name><Value><![CDATA[#%d]]></Value></MD></MetaData>
    <Data>%s</Data>
  </DataArray>`, dataType, dim0, encoding, dim0, data)
}

func TestDecodeGiftiMetric(t *testing.T) {
	doc := giftiXML(
		dataArray("NIFTI_TYPE_FLOAT32", "GZipBase64Binary", 3, gzipBase64(t, []float32{1, 2, 3})),
		dataArray("NIFTI_TYPE_FLOAT32", "Base64Binary", 3, base64.StdEncoding.EncodeToString(float32Bytes(4, 5.5, -6))),
	)

	g, err := decodeGifti([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	if g.Meta["AnatomicalStructurePrimary"] != "CortexLeft" {
		t.Errorf("meta = %v", g.Meta)
	}

	ts, err := g.TimeSeries()
	if err != nil {
		t.Fatal(err)
	}

	want := [][]float64{{1, 4}, {2, 5.5}, {3, -6}}
	if diff := cmp.Diff(want, rowsOf(ts)); diff != "" {
		t.Errorf("TimeSeries() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGiftiLabels(t *testing.T) {
	doc := giftiXML(dataArray("NIFTI_TYPE_INT32", "GZipBase64Binary", 5, gzipBase64(t, []int32{0, 181, 181, 0, 7})))

	g, err := decodeGifti([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	labels, err := g.Labels()
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]calc.Label{0, 181, 181, 0, 7}, labels); diff != "" {
		t.Errorf("Labels() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeGiftiASCII(t *testing.T) {
	doc := giftiXML(dataArray("NIFTI_TYPE_FLOAT32", "ASCII", 4, "\n 0.5 1\n 2 3.25 \n"))

	g, err := decodeGifti([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]float64{0.5, 1, 2, 3.25}, g.Arrays[0].Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	if g.Arrays[0].Meta["Name"] != "#4" {
		t.Errorf("array meta = %v", g.Arrays[0].Meta)
	}
}

func TestDecodeGiftiErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"encoding":  giftiXML(dataArray("NIFTI_TYPE_FLOAT32", "ExternalFileBinary", 1, "")),
		"data type": giftiXML(dataArray("NIFTI_TYPE_INT16", "Base64Binary", 1, "AAA=")),
	} {
		if _, err := decodeGifti([]byte(doc)); !errors.Is(err, ErrUnsupportedGifti) {
			t.Errorf("%s: got %v, want ErrUnsupportedGifti", name, err)
		}
	}

	short := giftiXML(dataArray("NIFTI_TYPE_FLOAT32", "Base64Binary", 3, base64.StdEncoding.EncodeToString(float32Bytes(1))))
	if _, err := decodeGifti([]byte(short)); err == nil {
		t.Error("expected an error for a short array")
	}

	mismatched := giftiXML(
		dataArray("NIFTI_TYPE_FLOAT32", "ASCII", 2, "1 2"),
		dataArray("NIFTI_TYPE_FLOAT32", "ASCII", 3, "1 2 3"),
	)
	g, err := decodeGifti([]byte(mismatched))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.TimeSeries(); !errors.Is(err, calc.ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

func float32Bytes(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}

	return b
}
