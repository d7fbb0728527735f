package testutil

import (
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarrelGeometryCSV(t *testing.T) {
	t.Parallel()
	lines := strings.Split(strings.TrimSpace(BarrelGeometryCSV()), "\n")
	require.Len(t, lines, len(BarrelRadii)+1)
	assert.Equal(t, "0,8,2,32,-450,450", lines[1])
	assert.Equal(t, "9,8,20,1020,-990,990", lines[10])
}

func TestStraightTrackHitsCSV(t *testing.T) {
	t.Parallel()
	lines := strings.Split(strings.TrimSpace(StraightTrackHitsCSV(0.5, 4)), "\n")
	require.Len(t, lines, len(BarrelRadii)+1)
	assert.Equal(t, "hit_id,layer,phi_slice,r,z", lines[0])
	assert.Equal(t, "2,1,4,72,36", lines[2])
}

func TestWriteFileAndServe(t *testing.T) {
	t.Parallel()
	path := WriteFile(t, t.TempDir(), "x.csv", "a,b\n")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rec := Serve(h, http.MethodGet, "/")
	AssertStatusCode(t, rec.Code, http.StatusTeapot)
}
