package mood

// ClassifyFeatures assigns a mood from audio features.
// Rules are evaluated in order and the first match wins, since the feature
// ranges overlap (a bright, loud track is both "happy" and "angry" by energy):
//
//  1. valence > 0.75 and energy > 0.6                      = happy
//  2. valence < 0.4 and energy < 0.4                       = sad
//  3. energy > 0.8 and valence < 0.5                       = angry
//  4. valence < 0.3 and acousticness > 0.5 and minor mode  = fear
//  5. energy > 0.7 and tempo > 120                         = surprised
//  6. valence < 0.4 and danceability < 0.4                 = disgust
//  7. otherwise                                            = neutral
//
// Nil features classify as neutral.
func ClassifyFeatures(f *AudioFeatures) Mood {
	if f == nil {
		return Neutral
	}

	switch {
	case f.Valence > 0.75 && f.Energy > 0.6:
		return Happy
	case f.Valence < 0.4 && f.Energy < 0.4:
		return Sad
	case f.Energy > 0.8 && f.Valence < 0.5:
		return Angry
	case f.Valence < 0.3 && f.Acousticness > 0.5 && f.Mode == 0:
		return Fear
	case f.Energy > 0.7 && f.Tempo > 120:
		return Surprised
	case f.Valence < 0.4 && f.Danceability < 0.4:
		return Disgust
	default:
		return Neutral
	}
}
