package converter

import (
	"github.com/jchantrell/rsbconv/internal/executor"
	"github.com/jchantrell/rsbconv/internal/platform"
	"github.com/jchantrell/rsbconv/internal/session"
)

// MethodID is the command table id of the platform conversion.
const MethodID = "rsb.platform_convert"

// DoneFunc observes every finished job, successful or not.
type DoneFunc func(s *session.Session, job executor.Job, result *Result, err error)

// JobFunc adapts Convert to the command table. A job without a destination
// gets its work directory from workDir.
func (c *Converter) JobFunc(target platform.Platform, workDir func(source string) (string, error), done DoneFunc) executor.JobFunc {
	return func(s *session.Session, job executor.Job) error {
		dir := job.Destination
		if dir == "" {
			var err error
			dir, err = workDir(job.Source)
			if err != nil {
				if done != nil {
					done(s, job, nil, err)
				}
				return err
			}
		}

		result, err := c.Convert(s, job.Source, dir, target)
		if done != nil {
			done(s, job, result, err)
		}
		return err
	}
}
