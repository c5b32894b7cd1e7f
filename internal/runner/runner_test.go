package runner

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pnetlab/pfnqc/internal/config"
	"github.com/pnetlab/pfnqc/internal/loader"
	"github.com/pnetlab/pfnqc/internal/quality"
)

const (
	testSpace    = 6
	testNetworks = 2
	testTime     = 12
)

func testGroupFN() *mat.Dense {
	return mat.NewDense(testSpace, testNetworks, []float64{
		1.0, 0.1,
		0.9, 0.2,
		0.8, 0.1,
		0.1, 0.9,
		0.2, 1.0,
		0.1, 0.8,
	})
}

func swappedColumns(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for j := 0; j < c; j++ {
		out.SetCol(c-1-j, mat.Col(nil, j, m))
	}
	return out
}

func testSignal(seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(int64(seed)))
	data := make([]float64, testTime*testSpace)
	for i := range data {
		data[i] = rng.Float64() * 10
	}
	return mat.NewDense(testTime, testSpace, data)
}

// batchFixture lays out a 3-subject surface-type run on disk and returns its
// manifest. Callers mutate the returned paths to inject faults.
func batchFixture(t *testing.T) *config.Manifest {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, loader.SaveTemplate(filepath.Join(dir, "template.json"),
		&loader.Template{DataType: loader.DataTypeSurface}))
	require.NoError(t, loader.WriteMatrix(filepath.Join(dir, "gFN.npy"), testGroupFN(), 64))

	var scans, folders []string
	for i, subject := range []string{"sub1", "sub2", "sub3"} {
		subDir := filepath.Join(dir, "personalized", subject)
		require.NoError(t, os.MkdirAll(subDir, 0o755))
		require.NoError(t, loader.WriteMatrix(filepath.Join(subDir, "FN.npy"), testGroupFN(), 64))

		scan := filepath.Join(dir, subject+"_scan.npy")
		require.NoError(t, loader.WriteMatrix(scan, testSignal(uint64(i+1)), 64))
		scans = append(scans, scan)
		folders = append(folders, subject)
	}
	scanList := filepath.Join(dir, "scan_list.txt")
	folderList := filepath.Join(dir, "subject_folders.txt")
	require.NoError(t, os.WriteFile(scanList, []byte(strings.Join(scans, "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(folderList, []byte(strings.Join(folders, "\n")+"\n"), 0o644))

	return &config.Manifest{
		ResultDir:       filepath.Join(dir, "qc"),
		Template:        filepath.Join(dir, "template.json"),
		GroupFN:         filepath.Join(dir, "gFN.npy"),
		PersonalizedDir: filepath.Join(dir, "personalized"),
		ScanList:        scanList,
		SubjectFolders:  folderList,
		Precision:       "double",
		Normalization:   "none",
		Workers:         2,
	}
}

func TestRunAllPass(t *testing.T) {
	man := batchFixture(t)
	r, err := New(man)
	require.NoError(t, err)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 0, summary.Mismatched)
	assert.Equal(t, 0, summary.Errored)
	assert.Equal(t, "All 3 scans passed QC", summary.Message)

	for _, subject := range []string{"sub1", "sub2", "sub3"} {
		assert.FileExists(t, filepath.Join(man.ResultDir, subject, "Result.json"))
		assert.FileExists(t, filepath.Join(man.ResultDir, subject, "Spatial_Correspondence.npy"))
	}
	report, err := os.ReadFile(filepath.Join(man.ResultDir, "Final_Report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "All 3 scans passed QC")
	assert.FileExists(t, filepath.Join(man.ResultDir, "Summary.json"))
}

func TestRunFaultIsolation(t *testing.T) {
	man := batchFixture(t)
	// Subject 2 loses its scan file; the other two must still process.
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(man.ResultDir), "sub2_scan.npy")))

	r, err := New(man)
	require.NoError(t, err)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Errored)
	assert.Equal(t, 0, summary.Mismatched)
	assert.Equal(t, "Number of failed scans = 1", summary.Message)

	assert.FileExists(t, filepath.Join(man.ResultDir, "sub1", "Result.json"))
	assert.NoFileExists(t, filepath.Join(man.ResultDir, "sub2", "Result.json"))
	assert.FileExists(t, filepath.Join(man.ResultDir, "sub3", "Result.json"))

	report, err := os.ReadFile(filepath.Join(man.ResultDir, "Final_Report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "failed to process sub folder: sub2 (missing_input)")
}

func TestRunDetectsMismatch(t *testing.T) {
	man := batchFixture(t)
	// Swap sub3's network columns so each pFN matches the other gFN best.
	swapped := swappedColumns(testGroupFN())
	require.NoError(t, loader.WriteMatrix(
		filepath.Join(man.PersonalizedDir, "sub3", "FN.npy"), swapped, 64))

	r, err := New(man)
	require.NoError(t, err)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Mismatched)
	assert.Equal(t, 0, summary.Errored)
	assert.Equal(t, "Number of failed scans = 1", summary.Message)

	report, err := os.ReadFile(filepath.Join(man.ResultDir, "Final_Report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "2 miss matched FNs in sub folder: sub3")
}

func TestRunDegenerateNetworkIsolated(t *testing.T) {
	man := batchFixture(t)
	// Zero out one of sub1's weight columns.
	bad := mat.DenseCopyOf(testGroupFN())
	for i := 0; i < testSpace; i++ {
		bad.Set(i, 1, 0)
	}
	require.NoError(t, loader.WriteMatrix(
		filepath.Join(man.PersonalizedDir, "sub1", "FN.npy"), bad, 64))

	r, err := New(man)
	require.NoError(t, err)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errored)
	report, err := os.ReadFile(filepath.Join(man.ResultDir, "Final_Report.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "failed to process sub folder: sub1 (degenerate_network)")
}

func TestCollectUnitsCombine(t *testing.T) {
	dir := t.TempDir()
	scanList := filepath.Join(dir, "scans.txt")
	folderList := filepath.Join(dir, "folders.txt")
	require.NoError(t, os.WriteFile(scanList, []byte("a1.npy\na2.npy\nb1.npy\n"), 0o644))
	require.NoError(t, os.WriteFile(folderList, []byte("subA\nsubA\nsubB\n"), 0o644))

	r := &Runner{man: &config.Manifest{
		ScanList: scanList, SubjectFolders: folderList, CombineScan: true,
	}}
	units, err := r.collectUnits()
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "subA", units[0].folder)
	assert.Equal(t, []string{"a1.npy", "a2.npy"}, units[0].scans)
	assert.Equal(t, []string{"b1.npy"}, units[1].scans)
}

func TestCollectUnitsSeparate(t *testing.T) {
	dir := t.TempDir()
	scanList := filepath.Join(dir, "scans.txt")
	folderList := filepath.Join(dir, "folders.txt")
	require.NoError(t, os.WriteFile(scanList, []byte("a1.npy\na2.npy\nb1.npy\n"), 0o644))
	require.NoError(t, os.WriteFile(folderList, []byte("subA\nsubA\nsubB\n"), 0o644))

	r := &Runner{man: &config.Manifest{
		ScanList: scanList, SubjectFolders: folderList,
	}}
	units, err := r.collectUnits()
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, filepath.Join("subA", "1"), units[0].folder)
	assert.Equal(t, filepath.Join("subA", "2"), units[1].folder)
	assert.Equal(t, "subB", units[2].folder)
}

func TestCollectUnitsLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	scanList := filepath.Join(dir, "scans.txt")
	folderList := filepath.Join(dir, "folders.txt")
	require.NoError(t, os.WriteFile(scanList, []byte("a1.npy\na2.npy\n"), 0o644))
	require.NoError(t, os.WriteFile(folderList, []byte("subA\n"), 0o644))

	r := &Runner{man: &config.Manifest{ScanList: scanList, SubjectFolders: folderList}}
	_, err := r.collectUnits()
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, reasonMissingInput, classify(loader.ErrMissingInput))
	assert.Equal(t, reasonDegenerateNetwork, classify(quality.ErrDegenerateNetwork))
	assert.Equal(t, reasonInternal, classify(os.ErrPermission))
}
