package models

import (
	"errors"
	"fmt"
	"strings"
)

// ParentKind names the entity type a comment or like attaches to.
type ParentKind string

const (
	ParentVideo   ParentKind = "video"
	ParentTweet   ParentKind = "tweet"
	ParentComment ParentKind = "comment"
)

// ErrInvalidParentRef indicates a parent reference with an unknown kind or a
// missing id.
var ErrInvalidParentRef = errors.New("parent reference must name exactly one of video, tweet or comment")

// ParentRef identifies exactly one parent entity. The zero value is invalid;
// construct through NewParentRef so a ref can never point at zero targets or
// more than one.
type ParentRef struct {
	Kind ParentKind
	ID   string
}

// NewParentRef validates the kind and id and returns the tagged reference.
func NewParentRef(kind ParentKind, id string) (ParentRef, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ParentRef{}, ErrInvalidParentRef
	}
	switch kind {
	case ParentVideo, ParentTweet, ParentComment:
		return ParentRef{Kind: kind, ID: id}, nil
	default:
		return ParentRef{}, ErrInvalidParentRef
	}
}

// Valid reports whether the reference was properly constructed.
func (p ParentRef) Valid() bool {
	if p.ID == "" {
		return false
	}
	switch p.Kind {
	case ParentVideo, ParentTweet, ParentComment:
		return true
	}
	return false
}

func (p ParentRef) String() string {
	return fmt.Sprintf("%s:%s", p.Kind, p.ID)
}
