package service

import (
	"context"
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	friendDomain "github.com/owetally/tally/friend"
)

// SearchBorrowers fuzzy-matches the search term against the actor's friends
// to resolve a borrower when assigning a debt. A single-word term is also
// matched against bare first and last names, so "dave" finds "Dave Cohen"
// with a full score.
func (h *Service) SearchBorrowers(ctx context.Context, actor Actor, term string) ([]*friendDomain.Friend, error) {
	if h.friendStore == nil {
		return nil, nil
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	friends, err := h.friendStore.ListFriends(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	if len(friends) == 0 {
		return nil, nil
	}

	justFirstOrLast := len(strings.Split(term, " ")) == 1
	bufferLength := len(friends)
	if justFirstOrLast {
		bufferLength = bufferLength * 3
	}

	searchedValues := make([]string, 0, bufferLength)
	searchedValueToFriend := make(map[string]*friendDomain.Friend, bufferLength)

	for _, f := range friends {
		fullName := f.FullName()
		if fullName == "" {
			continue
		}
		if _, exists := searchedValueToFriend[fullName]; !exists {
			searchedValues = append(searchedValues, fullName)
			searchedValueToFriend[fullName] = f
		}
		if justFirstOrLast {
			if _, exists := searchedValueToFriend[f.FirstName]; !exists && f.FirstName != "" {
				searchedValues = append(searchedValues, f.FirstName)
				searchedValueToFriend[f.FirstName] = f
			}
			if _, exists := searchedValueToFriend[f.LastName]; !exists && f.LastName != "" {
				searchedValues = append(searchedValues, f.LastName)
				searchedValueToFriend[f.LastName] = f
			}
		}
	}

	findings, err := fuzzy.Extract(term, searchedValues, h.cfg.SearchLimit, h.cfg.SearchMinimumScore, fuzzy.UQRatio)
	if err != nil {
		return nil, fmt.Errorf("search function: %w", err)
	}

	matched := make([]*friendDomain.Friend, 0, len(findings))
	seen := make(map[string]struct{}, len(findings))
	for _, finding := range findings {
		f, ok := searchedValueToFriend[finding.Match]
		if !ok {
			return nil, fmt.Errorf("mapping finding value back to friend. Got value %q from fuzzy search but didn't find its belonging friend", finding.Match)
		}
		if _, dup := seen[f.FriendID]; dup {
			continue
		}
		seen[f.FriendID] = struct{}{}
		matched = append(matched, f)
	}

	return matched, nil
}
