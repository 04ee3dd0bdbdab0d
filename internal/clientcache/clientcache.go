// Package clientcache holds the merge rules the mobile client applies when
// a subscription push or mutation response lands on a cached query result.
// Everything here is a pure function of (previous snapshot, new entity):
// no network, no storage, so the rules are testable without any UI
// framework and usable verbatim as the contract for the apps.
package clientcache

import (
	"github.com/oggyb/bubbles/internal/db"
	"github.com/oggyb/bubbles/internal/repository"
	"github.com/oggyb/bubbles/internal/utils/pagination"
)

// MatchSnapshot is the client's cached view of one match's message
// connection.
type MatchSnapshot struct {
	MatchID     uint64                   `json:"matchId"`
	Edges       []repository.MessageEdge `json:"edges"`
	UnreadCount int                      `json:"unreadCount"`
}

// MergeMessage inserts a pushed message at the head of the target match's
// edge list, preserving newest-first order. The unread count grows unless
// the client is currently viewing that match. Snapshots for other matches
// pass through untouched.
func MergeMessage(snap MatchSnapshot, message db.Message, viewing bool) MatchSnapshot {
	if message.MatchID != snap.MatchID {
		return snap
	}

	edges := make([]repository.MessageEdge, 0, len(snap.Edges)+1)
	edges = append(edges, repository.MessageEdge{
		Cursor: pagination.Encode(message.ID),
		Node:   message,
	})
	edges = append(edges, snap.Edges...)

	out := MatchSnapshot{
		MatchID:     snap.MatchID,
		Edges:       edges,
		UnreadCount: snap.UnreadCount,
	}
	if !viewing {
		out.UnreadCount++
	}
	return out
}

// MergeMatch appends a pushed match to the cached match list.
func MergeMatch(matches []db.Match, match db.Match) []db.Match {
	out := make([]db.Match, 0, len(matches)+1)
	out = append(out, matches...)
	return append(out, match)
}
