package mood

// Index maps each mood of a taxonomy to the playlist entries classified under
// it, in playlist order. An Index is never modified after BuildIndex returns.
type Index struct {
	taxonomy string
	labels   []Mood
	buckets  map[Mood][]Entry
	dropped  int
}

// BuildIndex classifies every track with the taxonomy and appends it to the
// matching bucket in input order. Every taxonomy label has a bucket, even
// when empty. Tracks the taxonomy cannot classify are counted as dropped.
func BuildIndex(tax Taxonomy, tracks []Track) *Index {
	idx := &Index{
		taxonomy: tax.Name(),
		labels:   tax.Labels(),
		buckets:  make(map[Mood][]Entry),
	}
	for _, label := range idx.labels {
		idx.buckets[label] = []Entry{}
	}

	for _, t := range tracks {
		m, ok := tax.Classify(t)
		if !ok {
			idx.dropped++
			continue
		}
		idx.buckets[m] = append(idx.buckets[m], t.Entry())
	}

	return idx
}

// Taxonomy returns the name of the taxonomy the index was built with.
func (idx *Index) Taxonomy() string {
	return idx.taxonomy
}

// Labels returns the taxonomy labels in declaration order.
func (idx *Index) Labels() []Mood {
	return append([]Mood(nil), idx.labels...)
}

// Bucket returns a copy of the entries for a mood.
// An unknown mood or a nil index yields an empty slice.
func (idx *Index) Bucket(m Mood) []Entry {
	if idx == nil {
		return []Entry{}
	}
	return append([]Entry{}, idx.buckets[m]...)
}

// Displays returns the display strings for a mood.
func (idx *Index) Displays(m Mood) []string {
	bucket := idx.Bucket(m)
	out := make([]string, len(bucket))
	for i, e := range bucket {
		out[i] = e.String()
	}
	return out
}

// Len returns the number of classified entries across all buckets.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, b := range idx.buckets {
		n += len(b)
	}
	return n
}

// Dropped returns how many tracks could not be classified.
func (idx *Index) Dropped() int {
	if idx == nil {
		return 0
	}
	return idx.dropped
}

// Counts returns the bucket sizes in label order.
func (idx *Index) Counts() []BucketCount {
	if idx == nil {
		return nil
	}
	counts := make([]BucketCount, len(idx.labels))
	for i, label := range idx.labels {
		counts[i] = BucketCount{Mood: label, Count: len(idx.buckets[label])}
	}
	return counts
}

// BucketCount is the size of one mood bucket.
type BucketCount struct {
	Mood  Mood
	Count int
}
