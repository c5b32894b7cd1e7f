// Package runner orchestrates the quality-control batch: it sequences the
// codec, correspondence matcher and homogeneity scorer per subject, isolates
// per-subject faults, and aggregates the run summary. Subjects only read the
// shared immutable gFN and mask, so they fan out to a worker pool with no
// synchronization beyond result collection.
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"

	"github.com/pnetlab/pfnqc/internal/brainspace"
	"github.com/pnetlab/pfnqc/internal/config"
	"github.com/pnetlab/pfnqc/internal/loader"
	"github.com/pnetlab/pfnqc/internal/quality"
)

// personalizedFileName is the fixed name of a subject's network file inside
// its folder, matching the layout the decomposition stage writes.
const personalizedFileName = "FN.npy"

// Runner holds the shared, immutable state of one QC batch.
type Runner struct {
	man   *config.Manifest
	codec brainspace.Codec
	gFN   *mat.Dense
	prec  quality.Precision
}

// unit is one QC work item: a subject folder and the scans concatenated into
// its time series.
type unit struct {
	folder string
	scans  []string
}

type outcome struct {
	index  int
	result *Result
	err    error
}

// New loads the shared inputs: template, mask, codec variant and group
// networks. Volumetric group networks are compacted once here.
func New(man *config.Manifest) (*Runner, error) {
	prec, err := quality.ParsePrecision(man.Precision)
	if err != nil {
		return nil, err
	}

	tmpl, err := loader.LoadTemplate(man.Template)
	if err != nil {
		return nil, err
	}
	codec, err := tmpl.BuildCodec(filepath.Dir(man.Template))
	if err != nil {
		return nil, err
	}

	arr, err := loader.ReadArray(man.GroupFN)
	if err != nil {
		return nil, err
	}
	gFN, err := codec.CompactWeights(arr)
	if err != nil {
		return nil, fmt.Errorf("group networks: %w", err)
	}

	return &Runner{man: man, codec: codec, gFN: gFN, prec: prec}, nil
}

// Run processes every QC unit and writes per-subject results, the final
// report and the run summary under the manifest's result directory. A
// subject that fails to load or compute is recorded and never aborts the
// batch; only setup problems or context cancellation return an error.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	units, err := r.collectUnits()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.man.ResultDir, 0o755); err != nil {
		return nil, fmt.Errorf("runner: create result dir: %w", err)
	}

	log.Info().Int("units", len(units)).Int("workers", r.man.Workers).Msg("starting quality control")

	jobs := make(chan int)
	out := make(chan outcome, len(units))
	var wg sync.WaitGroup
	for w := 0; w < r.man.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := r.processUnit(units[i])
				out <- outcome{index: i, result: res, err: err}
			}
		}()
	}

	enqueued := 0
dispatch:
	for i := range units {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- i:
			enqueued++
		}
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]*Result, len(units))
	failures := make([]*Failure, len(units))
	for o := range out {
		if o.err != nil {
			failures[o.index] = &Failure{
				Subject: units[o.index].folder,
				Reason:  classify(o.err),
				Error:   o.err.Error(),
			}
			log.Error().Err(o.err).Str("subject", units[o.index].folder).Msg("subject failed QC processing")
			continue
		}
		results[o.index] = o.result
	}

	summary := r.summarize(units[:enqueued], results, failures)
	if err := r.writeRunOutputs(started, units[:enqueued], results, failures, summary); err != nil {
		return summary, err
	}

	log.Info().
		Int("total", summary.Total).
		Int("mismatched", summary.Mismatched).
		Int("errored", summary.Errored).
		Msg(summary.Message)

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// collectUnits reads the scan and subject-folder lists and groups scans into
// QC units. With combineScan every folder's scans form one unit; otherwise a
// folder appearing more than once is split into numbered sub-folders, one
// scan each.
func (r *Runner) collectUnits() ([]unit, error) {
	scans, err := loader.ReadLines(r.man.ScanList)
	if err != nil {
		return nil, err
	}
	folders, err := loader.ReadLines(r.man.SubjectFolders)
	if err != nil {
		return nil, err
	}
	if len(scans) != len(folders) {
		return nil, fmt.Errorf("runner: %d scans but %d subject folders", len(scans), len(folders))
	}

	var units []unit
	if r.man.CombineScan {
		index := make(map[string]int)
		for i, folder := range folders {
			if at, ok := index[folder]; ok {
				units[at].scans = append(units[at].scans, scans[i])
				continue
			}
			index[folder] = len(units)
			units = append(units, unit{folder: folder, scans: []string{scans[i]}})
		}
		return units, nil
	}

	seen := make(map[string]int)
	for i, folder := range folders {
		count := 0
		for _, f := range folders {
			if f == folder {
				count++
			}
		}
		name := folder
		if count > 1 {
			seen[folder]++
			name = filepath.Join(folder, strconv.Itoa(seen[folder]))
		}
		units = append(units, unit{folder: name, scans: []string{scans[i]}})
	}
	return units, nil
}

// processUnit runs the full QC sequence for one subject: load pFN and signal,
// correlate against the group networks, detect mismatches, and score
// functional homogeneity with the group networks as control.
func (r *Runner) processUnit(u unit) (*Result, error) {
	eps := r.prec.Eps()

	arr, err := loader.ReadArray(filepath.Join(r.man.PersonalizedDir, u.folder, personalizedFileName))
	if err != nil {
		return nil, err
	}
	pFN, err := r.codec.CompactWeights(arr)
	if err != nil {
		return nil, fmt.Errorf("personalized networks: %w", err)
	}

	signal, err := loader.LoadSignal(u.scans, r.codec, r.man.Normalization, eps)
	if err != nil {
		return nil, err
	}

	corr, err := quality.Correlate(pFN, r.gFN, eps)
	if err != nil {
		return nil, err
	}
	margin, mismatches, err := quality.DetectMismatch(corr)
	if err != nil {
		return nil, err
	}

	fh, err := quality.Homogeneity(signal, pFN, eps)
	if err != nil {
		return nil, err
	}
	// The control normalizes the group time course by the personalized
	// column sums, keeping both scores on the same denominator.
	fhControl, err := quality.HomogeneityWithNorm(signal, r.gFN, quality.ColumnSums(pFN), eps)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Subject:                      u.folder,
		SpatialCorrespondence:        denseToRows(corr),
		DeltaSpatialCorrespondence:   margin,
		MissMatch:                    mismatches,
		FunctionalHomogeneity:        fh,
		FunctionalHomogeneityControl: fhControl,
	}
	if err := r.writeSubjectOutputs(u.folder, res, corr); err != nil {
		return nil, err
	}

	log.Info().Str("subject", u.folder).Int("mismatches", len(mismatches)).Msg("subject processed")
	return res, nil
}

func (r *Runner) writeSubjectOutputs(folder string, res *Result, corr *mat.Dense) error {
	dir := filepath.Join(r.man.ResultDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("runner: create subject dir: %w", err)
	}
	raw, err := sonic.Marshal(res)
	if err != nil {
		return fmt.Errorf("runner: marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Result.json"), raw, 0o644); err != nil {
		return fmt.Errorf("runner: write result: %w", err)
	}
	return loader.WriteMatrix(filepath.Join(dir, "Spatial_Correspondence.npy"), corr, r.prec.Bits())
}

func (r *Runner) summarize(units []unit, results []*Result, failures []*Failure) *Summary {
	s := &Summary{Total: len(units)}
	for i := range units {
		switch {
		case failures[i] != nil:
			s.Errored++
		case results[i] != nil && len(results[i].MissMatch) > 0:
			s.Mismatched++
		}
	}
	if s.Mismatched == 0 && s.Errored == 0 {
		s.Message = fmt.Sprintf("All %d scans passed QC", s.Total)
	} else {
		s.Message = fmt.Sprintf("Number of failed scans = %d", s.Mismatched+s.Errored)
	}
	return s
}

func (r *Runner) writeRunOutputs(started time.Time, units []unit, results []*Result, failures []*Failure, s *Summary) error {
	raw, err := sonic.Marshal(s)
	if err != nil {
		return fmt.Errorf("runner: marshal summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(r.man.ResultDir, "Summary.json"), raw, 0o644); err != nil {
		return fmt.Errorf("runner: write summary: %w", err)
	}
	return writeReport(filepath.Join(r.man.ResultDir, "Final_Report.txt"), started, units, results, failures, s)
}

func denseToRows(m *mat.Dense) [][]float64 {
	rows, _ := m.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
