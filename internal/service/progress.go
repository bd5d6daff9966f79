package service

// ProgressFeedback grades a submitted value against the task's daily
// target.
func ProgressFeedback(value, target int) string {
	if target <= 0 {
		target = 1
	}
	v, t := float64(value), float64(target)
	switch {
	case v >= t*1.5:
		return "Wow! Great job!"
	case v >= t:
		return "Goal achieved!"
	case v >= t*0.75:
		return "Almost there!"
	case v >= t*0.5:
		return "Keep going!"
	default:
		return "Just started!"
	}
}
