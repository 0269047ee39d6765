package audio

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	Intn(n int) int
}

type Scale struct {
	Name    string
	Pitches []int
}

var FallbackScales = []Scale{
	{Name: "major", Pitches: []int{60, 62, 64, 65, 67, 69, 71, 72}},
	{Name: "natural minor", Pitches: []int{60, 62, 63, 65, 67, 69, 70, 72}},
	{Name: "blues", Pitches: []int{60, 61, 64, 65, 67, 68, 71, 72}},
}

// FallbackScale picks one of FallbackScales. A nil chooser always gets the
// major scale.
func FallbackScale(c Chooser) Scale {
	i := 0
	if c != nil {
		i = c.Intn(len(FallbackScales))
	}
	s := FallbackScales[i]
	return Scale{Name: s.Name, Pitches: append([]int(nil), s.Pitches...)}
}
