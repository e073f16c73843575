package lastfm

import (
	"bytes"
	"encoding/json"
)

// Source reports which endpoint a tag list came from.
type Source string

const (
	SourceTrack  Source = "track"
	SourceArtist Source = "artist" // track had no tags
	SourceNone   Source = "none"
)

// Tag is one Last.fm tag. Rank is its zero-based position in the response,
// which lists the most applied tag first.
type Tag struct {
	Name  string
	Count int
	Rank  int
}

// TopTags is the tag list found for a track and where it came from.
type TopTags struct {
	Tags   []Tag
	Source Source
}

// topTagsResponse decodes both track.getTopTags and artist.getTopTags.
type topTagsResponse struct {
	TopTags struct {
		Tag tagList `json:"tag"`
	} `json:"toptags"`
}

type wireTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// tagList accepts an array of tags or a bare object when a response
// holds a single tag.
type tagList []wireTag

func (l *tagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one wireTag
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*l = tagList{one}
		return nil
	}

	var many []wireTag
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// ranked drops unnamed entries and numbers the rest in response order.
func (l tagList) ranked() []Tag {
	tags := make([]Tag, 0, len(l))
	for _, w := range l {
		if w.Name == "" {
			continue
		}
		tags = append(tags, Tag{Name: w.Name, Count: w.Count, Rank: len(tags)})
	}
	return tags
}

type apiError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}
