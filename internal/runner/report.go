package runner

import (
	"fmt"
	"os"
	"time"
)

const reportDescription = `Quality control checks the spatial correspondence and functional homogeneity.
The spatial correspondence measures the spatial similarity between pFNs and gFNs.
pFNs are supposed to have the highest spatial similarity to their group-level counterparts, otherwise violating the QC.
The functional homogeneity measures the average temporal correlation between time series of each pFN and the whole brain.
pFNs are supposed to show improved functional homogeneity compared to gFNs.`

// writeReport writes the human-readable final report: description, one line
// per failed subject, and the fixed qualitative summary. Subjects that failed
// to process are listed separately from subjects that processed but showed a
// spatial mismatch.
func writeReport(path string, started time.Time, units []unit, results []*Result, failures []*Failure, s *Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("runner: create report: %w", err)
	}
	defer f.Close()

	const stamp = "2006-01-02 15:04:05"
	fmt.Fprintf(f, "Quality control started at %s\n", started.Format(stamp))
	fmt.Fprintf(f, "Quality control finished at %s\n\n", time.Now().Format(stamp))
	fmt.Fprintf(f, "%s\n\n", reportDescription)

	for i := range units {
		if results[i] != nil && len(results[i].MissMatch) > 0 {
			fmt.Fprintf(f, " %d miss matched FNs in sub folder: %s\n", len(results[i].MissMatch), units[i].folder)
		}
	}
	for i := range units {
		if failures[i] != nil {
			fmt.Fprintf(f, " failed to process sub folder: %s (%s)\n", failures[i].Subject, failures[i].Reason)
		}
	}

	fmt.Fprintf(f, "\nSummary\n %s\n", s.Message)
	if s.Mismatched == 0 && s.Errored == 0 {
		fmt.Fprintln(f, " This ensures that personalized FNs show highest spatial similarity to their group-level counterparts")
	} else {
		if s.Mismatched > 0 {
			fmt.Fprintln(f, " Failed scans have at least one pFN showing higher spatial similarity to a different group-level FN")
		}
		if s.Errored > 0 {
			fmt.Fprintf(f, " %d scan(s) could not be processed; see per-subject errors above\n", s.Errored)
		}
	}
	return nil
}
