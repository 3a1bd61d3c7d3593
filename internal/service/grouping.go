package service

import (
	"context"
	"fmt"
	"log"

	"sketchdataset/internal/core/domain"
	"sketchdataset/internal/core/ports"
	"sketchdataset/internal/imaging"
)

// GroupingEngine partitions exported artboards into groups of near-duplicates.
//
// Images are first bucketed by exact pixel size; within a bucket each image is
// compared, in input order, to the first member of every open group in
// creation order and joins the first group that matches. This is greedy and
// order dependent on purpose: it is not a transitive closure, and two images
// that both resemble a third can still land in different groups. Replacing it
// with union-find would change the output.
type GroupingEngine struct {
	images  ports.ImageLoader
	cmp     imaging.Comparator
	logger  *log.Logger
	verbose bool
}

// NewGroupingEngine creates a new GroupingEngine. The engine is single-threaded.
func NewGroupingEngine(images ports.ImageLoader, cmp imaging.Comparator, logger *log.Logger, verbose bool) *GroupingEngine {
	return &GroupingEngine{images: images, cmp: cmp, logger: logger, verbose: verbose}
}

// Bucket groups paths by exact (width, height). Buckets and their members
// keep first-seen order. Any unreadable image aborts.
func (g *GroupingEngine) Bucket(ctx context.Context, paths []string) ([]domain.SizeBucket, error) {
	var buckets []domain.SizeBucket
	index := make(map[domain.Size]int)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := g.images.Get(path)
		if err != nil {
			return nil, fmt.Errorf("failed to bucket %s: %w", path, err)
		}
		size := img.Size()
		i, ok := index[size]
		if !ok {
			i = len(buckets)
			index[size] = i
			buckets = append(buckets, domain.SizeBucket{Size: size})
		}
		buckets[i].Paths = append(buckets[i].Paths, path)
	}
	return buckets, nil
}

// Group buckets the paths, clusters every bucket and returns the groups with
// at least two members.
func (g *GroupingEngine) Group(ctx context.Context, paths []string) (domain.Manifest, domain.GroupingStats, error) {
	stats := domain.GroupingStats{Images: len(paths)}

	buckets, err := g.Bucket(ctx, paths)
	if err != nil {
		return nil, stats, err
	}
	stats.Buckets = len(buckets)

	manifest := domain.Manifest{}
	for _, bucket := range buckets {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		groups, comparisons, err := g.cluster(bucket)
		if err != nil {
			return nil, stats, err
		}
		stats.Comparisons += comparisons
		if g.verbose {
			g.logger.Printf("Bucket %dx%d: %d images, %d groups",
				bucket.Size.Width, bucket.Size.Height, len(bucket.Paths), len(groups))
		}
		for _, group := range groups {
			if len(group) > 1 {
				manifest = append(manifest, group)
			}
		}
	}
	stats.Groups = len(manifest)
	return manifest, stats, nil
}

// cluster runs the first-match-wins pass over one bucket.
func (g *GroupingEngine) cluster(bucket domain.SizeBucket) ([]domain.Group, int, error) {
	var groups []domain.Group
	comparisons := 0
	for _, path := range bucket.Paths {
		img, err := g.images.Get(path)
		if err != nil {
			return nil, comparisons, err
		}
		matched := false
		for i, group := range groups {
			rep, err := g.images.Get(group[0])
			if err != nil {
				return nil, comparisons, err
			}
			comparisons++
			if g.cmp.Similar(img, rep) {
				groups[i] = append(group, path)
				matched = true
				break
			}
		}
		if !matched {
			groups = append(groups, domain.Group{path})
		}
	}
	return groups, comparisons, nil
}
