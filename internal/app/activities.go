package app

import "asd-screening-service/internal/domain"

var activityCatalog = map[domain.ActivityKind]domain.Activity{
	domain.ActivityEmotion: {
		Kind:        domain.ActivityEmotion,
		Title:       "Emotion Detection Game",
		Description: "Test your ability to recognize emotional expressions through facial cues!",
		AgeRange:    "5-15 years",
		Duration:    "2-3 minutes",
		Tips: []string{
			"Webcam will open for emotion detection. Press Q to close early.",
			"Try to show different facial expressions (happy, sad, surprised, etc.)",
		},
	},
	domain.ActivityShape: {
		Kind:        domain.ActivityShape,
		Title:       "Shape Recognition Game",
		Description: "Show different shapes using your hands. This game helps test coordination and shape recognition skills!",
		AgeRange:    "4-12 years",
		Duration:    "2-3 minutes",
		Tips: []string{
			"Webcam will open to detect shapes using hand gestures. Press Q to stop anytime.",
			"Try making basic shapes like triangle, square, or circle with your hands.",
		},
	},
	domain.ActivityColor: {
		Kind:        domain.ActivityColor,
		Title:       "Color Detection Game",
		Description: "Show different colored objects to the camera and watch them get detected!",
		AgeRange:    "4-12 years",
		Duration:    "2 minutes",
		Tips: []string{
			"Try different colored toys, clothes, or books",
			"Move objects closer or farther from the camera",
			"Look for the camera window that opens separately",
			"Press 'q' in the camera window to close it manually",
		},
	},
	domain.ActivityGesture: {
		Kind:        domain.ActivityGesture,
		Title:       "Gesture Recognition Game",
		Description: "Show different hand gestures to the camera and watch them get recognized!",
		AgeRange:    "6-16 years",
		Duration:    "2 minutes",
		Tips: []string{
			"Thumbs Up: show approval or success",
			"Peace Sign: two fingers in V shape",
			"Pointing: point with index finger",
			"Open Hand: all five fingers open",
			"Fist: closed hand",
			"OK Sign: thumb and index finger circle",
		},
	},
}

// Activities returns the how-to-play catalog in display order.
func Activities() []domain.Activity {
	out := make([]domain.Activity, 0, len(activityCatalog))
	for _, kind := range domain.ActivityKinds() {
		a := activityCatalog[kind]
		a.Tips = append([]string(nil), a.Tips...)
		out = append(out, a)
	}
	return out
}
