package viewport

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Keyframes interpolates the camera from one view state to another, one
// frame per 1/fps seconds. The last frame is always exactly to.
func Keyframes(from, to ViewState, duration float32, fps int, fn ease.TweenFunc) []ViewState {
	if duration <= 0 || fps <= 0 {
		return []ViewState{to}
	}
	if fn == nil {
		fn = ease.OutCubic
	}

	tweens := [3]*gween.Tween{
		gween.New(float32(from.Zoom), float32(to.Zoom), duration, fn),
		gween.New(float32(from.Target[0]), float32(to.Target[0]), duration, fn),
		gween.New(float32(from.Target[1]), float32(to.Target[1]), duration, fn),
	}

	dt := 1 / float32(fps)
	var frames []ViewState
	for {
		var v [3]float32
		done := true
		for i, tw := range tweens {
			val, finished := tw.Update(dt)
			v[i] = val
			done = done && finished
		}
		if done {
			break
		}
		frames = append(frames, ViewState{
			Zoom:   float64(v[0]),
			Target: [2]float64{float64(v[1]), float64(v[2])},
		})
	}
	return append(frames, to)
}
