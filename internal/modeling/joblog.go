package modeling

import (
	"os"

	"gopkg.in/yaml.v3"
)

// JobLogRecord is the durable record of a job's last build attempt. It is
// written before the external tools run and updated on success or failure,
// so operators can tell how the last attempt ended independent of which
// artifacts happen to exist.
type JobLogRecord struct {
	WorkerRank int    `yaml:"worker_rank"`
	Complete   bool   `yaml:"complete"`
	Timing     string `yaml:"timing,omitempty"`
	Exception  string `yaml:"exception,omitempty"`
	Traceback  string `yaml:"traceback,omitempty"`
}

type jobLog struct {
	path   string
	record JobLogRecord
}

// startJobLog writes the initial {worker_rank, complete: false} record.
func startJobLog(path string, rank int) (*jobLog, error) {
	l := &jobLog{
		path:   path,
		record: JobLogRecord{WorkerRank: rank, Complete: false},
	}
	return l, l.write()
}

func (l *jobLog) success(timing string) error {
	l.record.Complete = true
	l.record.Timing = timing
	l.record.Exception = ""
	l.record.Traceback = ""
	return l.write()
}

func (l *jobLog) failure(exception, traceback string) error {
	l.record.Complete = false
	l.record.Exception = exception
	l.record.Traceback = traceback
	return l.write()
}

func (l *jobLog) write() error {
	data, err := yaml.Marshal(&l.record)
	if err != nil {
		return err
	}
	return os.WriteFile(l.path, data, 0o644)
}

// ReadJobLog loads a job's structured log, for diagnostics and tests.
func ReadJobLog(path string) (JobLogRecord, error) {
	var record JobLogRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return record, err
	}
	err = yaml.Unmarshal(data, &record)
	return record, err
}
