package ops

import (
	"context"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/library"
)

// TagCount is one entry of the tag histogram.
type TagCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TagStatsOutput contains the result of the TagStats operation.
type TagStatsOutput struct {
	Tags  []TagCount `json:"tags"`
	Items int        `json:"items"`
}

// TagStats counts how many items carry each tag, most used first, ties by label.
func TagStats(ctx context.Context, store *library.Store) (*TagStatsOutput, error) {
	items := store.List(ctx)
	counts := make(map[string]int)
	for _, it := range items {
		for _, t := range it.Tags {
			counts[t]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for label, n := range counts {
		tags = append(tags, TagCount{Label: label, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Label < tags[j].Label
	})

	return &TagStatsOutput{Tags: tags, Items: len(items)}, nil
}

// StatsOutput summarizes the library and its storage footprint.
type StatsOutput struct {
	Items          int     `json:"items"`
	Photos         int     `json:"photos"`
	Videos         int     `json:"videos"`
	Dangling       int     `json:"dangling"`
	UsedBytes      int64   `json:"used_bytes"`
	QuotaBytes     int64   `json:"quota_bytes"`
	Used           string  `json:"used"`
	Quota          string  `json:"quota"`
	PercentUsed    float64 `json:"percent_used"`
	HasLastCapture bool    `json:"has_last_capture"`
}

// Stats reports item counts and storage usage against the quota.
func Stats(ctx context.Context, store *library.Store, blobs *blob.Registry) (*StatsOutput, error) {
	usage, err := store.Usage(ctx)
	if err != nil {
		return nil, err
	}

	out := &StatsOutput{
		UsedBytes:  usage.UsedBytes,
		QuotaBytes: usage.QuotaBytes,
		Used:       humanize.IBytes(uint64(max(usage.UsedBytes, 0))),
		Quota:      "unlimited",
	}
	if usage.QuotaBytes > 0 {
		out.Quota = humanize.IBytes(uint64(usage.QuotaBytes))
		out.PercentUsed = float64(usage.UsedBytes) * 100 / float64(usage.QuotaBytes)
	}

	for _, it := range store.List(ctx) {
		out.Items++
		if it.IsVideo() {
			out.Videos++
		} else {
			out.Photos++
		}
		if isDangling(it.Src, blobs) {
			out.Dangling++
		}
	}
	_, out.HasLastCapture = store.LastCapture(ctx)
	return out, nil
}
