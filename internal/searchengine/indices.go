// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"context"
	"sort"

	"github.com/netspeed-inventory/backend/internal/netspeed"
)

// ResolveIndices implements §4.3.4 get_search_indices: a MAC-like query or
// an explicit historical request searches every netspeed_* index (plus the
// archive when historical); otherwise only the current file's index is
// searched, falling back to the newest index by creation time and finally
// to the archive if no live index exists. The returned preferred order is
// always the current discovery order, used only as the final sort
// tie-break (§4.3.3 item 7).
func (c *Client) ResolveIndices(ctx context.Context, roots []string, includeHistorical, macLike bool) (indices []string, preferredOrder []string, err error) {
	historical, current, _ := netspeed.Discover(roots)
	preferredOrder = netspeed.PreferredOrder(historical, current)

	if includeHistorical || macLike {
		idx := []string{IndexWildcard}
		if includeHistorical {
			idx = append(idx, ArchiveIndex)
		}
		return idx, preferredOrder, nil
	}

	if current != nil {
		return []string{IndexName(current.Name)}, preferredOrder, nil
	}

	infos, listErr := c.ListNetspeedIndices(ctx)
	if listErr != nil {
		return nil, preferredOrder, listErr
	}
	if len(infos) == 0 {
		return []string{ArchiveIndex}, preferredOrder, nil
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.After(infos[j].CreatedAt) })
	return []string{infos[0].Name}, preferredOrder, nil
}
