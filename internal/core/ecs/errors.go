package ecs

import "errors"

var (
	ErrUnknownComponentType    = errors.New("unknown component type")
	ErrClassAlreadyRegistered  = errors.New("component class already registered")
	ErrInvalidClass            = errors.New("invalid component class")
	ErrMemberAlreadyRegistered = errors.New("member already registered")
	ErrUnknownMember           = errors.New("unknown member")
	ErrAlreadySubmitted        = errors.New("members already submitted to allocation")
	ErrNotSubmitted            = errors.New("members not submitted to allocation")
	ErrComponentLimit          = errors.New("component count exceeds reserved capacity")
	ErrEntityNotFound          = errors.New("entity not found")
)
