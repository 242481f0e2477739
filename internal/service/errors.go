package service

import (
	"errors"
	"pokemon-sysbot/internal/repository"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBuildIllegal    = errors.New("build is not legal")
	ErrTeamFull        = repository.ErrTeamFull
	ErrNothingQueued   = errors.New("no queued builds to trade")
)
