package clustering

// generateMoodName creates a descriptive name based on audio feature centroid values.
// Uses a 2x2 energy/valence quadrant system with acousticness modifier.
//
// Quadrants:
//   - High Energy + High Valence = "Upbeat Party"
//   - High Energy + Low Valence  = "Intense & Dark"
//   - Low Energy  + High Valence = "Chill & Happy"
//   - Low Energy  + Low Valence  = "Reflective & Melancholy"
//
// Acousticness modifier: if > 0.6, appends "Acoustic" to the name.
func generateMoodName(centroid map[string]float64) string {
	var baseName string

	switch {
	case isHighEnergy(centroid) && isHighValence(centroid):
		baseName = "Upbeat Party"
	case isHighEnergy(centroid):
		baseName = "Intense & Dark"
	case isHighValence(centroid):
		baseName = "Chill & Happy"
	default:
		baseName = "Reflective & Melancholy"
	}

	if centroid["acousticness"] > 0.6 {
		return baseName + " (Acoustic)"
	}
	return baseName
}

func isHighEnergy(centroid map[string]float64) bool  { return centroid["energy"] > 0.6 }
func isHighValence(centroid map[string]float64) bool { return centroid["valence"] > 0.5 }

// MoodCategory represents a cluster's mood for display purposes.
type MoodCategory struct {
	Name        string  // Display name
	Energy      float64 // Average energy level
	Valence     float64 // Average positivity
	Description string  // Brief description of the mood
}

// GetMoodCategory returns a detailed mood category for a centroid.
func GetMoodCategory(centroid map[string]float64) MoodCategory {
	var description string
	switch {
	case isHighEnergy(centroid) && isHighValence(centroid):
		description = "High-energy, positive vibes - perfect for dancing and celebrations"
	case isHighEnergy(centroid):
		description = "Intense, driving energy with darker emotional tones"
	case isHighValence(centroid):
		description = "Relaxed and uplifting - great for unwinding"
	default:
		description = "Contemplative and introspective - ideal for quiet moments"
	}

	return MoodCategory{
		Name:        generateMoodName(centroid),
		Energy:      centroid["energy"],
		Valence:     centroid["valence"],
		Description: description,
	}
}
