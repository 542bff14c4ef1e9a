package provider

import (
	"errors"
	"fmt"
)

var (
	ErrAuthFailed            = errors.New("authentication failed")
	ErrBuildNotFound         = errors.New("build not found")
	ErrJobNotFound           = errors.New("job not found")
	ErrInvalidBuildReference = errors.New("invalid build reference")
	ErrNotConfigured         = errors.New("jenkins connection not configured")
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts API errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var userErr *UserError
	if errors.As(err, &userErr) {
		return err
	}

	if errors.Is(err, ErrNotConfigured) {
		return &UserError{
			Message: "Jenkins connection is not configured",
			Hint:    "Run 'clee init --jenkins-username USER --jenkins-password TOKEN --jenkins-base-url URL'\n  or set CLEE_JENKINS_USERNAME, CLEE_JENKINS_PASSWORD and CLEE_JENKINS_BASE_URL",
			Err:     err,
		}
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that the Jenkins username and API token are valid.\n  - Re-run 'clee init' or set CLEE_JENKINS_PASSWORD",
			Err:     err,
		}
	}

	if errors.Is(err, ErrJobNotFound) {
		return &UserError{
			Message: "Job not found",
			Hint:    "Run 'clee list-jobs' to see the available jobs.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrBuildNotFound) {
		return &UserError{
			Message: "Build not found",
			Hint:    "Run 'clee list JOB' to see the job's recent builds.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrInvalidBuildReference) {
		return &UserError{
			Message: "Invalid build source",
			Hint:    "--source takes a parameters YAML file or the number of a build that was started with system_tests_branch.",
			Err:     err,
		}
	}

	return err
}
