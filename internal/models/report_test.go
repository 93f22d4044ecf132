package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPayloadScanAndFiles(t *testing.T) {
	var p ReportPayload
	require.NoError(t, p.Scan([]byte(`{"present":18,"files":[{"path":"a/b/1_x.pdf","url":"http://s/x","name":"x.pdf"}]}`)))

	assert.EqualValues(t, 18, p["present"])
	files := p.Files()
	require.Len(t, files, 1)
	assert.Equal(t, Attachment{Path: "a/b/1_x.pdf", URL: "http://s/x", Name: "x.pdf"}, files[0])
}

func TestReportPayloadScanNil(t *testing.T) {
	var p ReportPayload
	require.NoError(t, p.Scan(nil))
	assert.NotNil(t, p)
	assert.Empty(t, p.Files())
	assert.Error(t, p.Scan(42))
}

func TestReportPayloadWithFilesMerges(t *testing.T) {
	base := ReportPayload{"topics": "Reading"}
	first := base.WithFiles([]Attachment{{Path: "p1", URL: "u1", Name: "n1"}})
	second := first.WithFiles([]Attachment{{Path: "p2", URL: "u2", Name: "n2"}})

	_, hasFiles := base[PayloadFilesKey]
	assert.False(t, hasFiles, "original payload must not be mutated")
	assert.Len(t, first.Files(), 1)
	assert.Len(t, second.Files(), 2)
	assert.Equal(t, "Reading", second["topics"])
}

func TestReportPayloadWithNoFilesStaysAbsent(t *testing.T) {
	out := ReportPayload{"present": 18}.WithFiles(nil)
	_, hasFiles := out[PayloadFilesKey]
	assert.False(t, hasFiles)
}

func TestReportPayloadValue(t *testing.T) {
	v, err := ReportPayload(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = ReportPayload{"present": 18}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"present":18}`, string(v.([]byte)))
}

func TestReportEnums(t *testing.T) {
	assert.True(t, ReportTypeClass.Valid())
	assert.False(t, ReportType("memo").Valid())
	assert.True(t, ReportStatusRejected.Valid())
	assert.False(t, ReportStatus(FilterAll).Valid())
}
