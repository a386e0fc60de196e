package workout

import "fmt"

// DefaultProgramCount is the number of program slots a fresh install starts with
const DefaultProgramCount = 10

// DefaultPrograms returns the ten starter slots. The first is a ready-to-run
// 20 minute walk/run; the others are empty.
func DefaultPrograms() []Program {
	programs := make([]Program, 0, DefaultProgramCount)
	for i := 0; i < DefaultProgramCount; i++ {
		p := Program{
			ID:          fmt.Sprintf("program_%d", i+1),
			Name:        fmt.Sprintf("Programme %d", i+1),
			Position:    i,
			RepeatCount: 1,
			Intervals:   []Interval{},
		}
		if i == 0 {
			p.Intervals = []Interval{
				{ID: "1", Name: "Échauffement", Duration: 300, Incline: 1, Speed: 4},
				{ID: "2", Name: "Marche rapide", Duration: 300, Incline: 2, Speed: 5.5},
				{ID: "3", Name: "Course légère", Duration: 300, Incline: 1, Speed: 7},
				{ID: "4", Name: "Récupération", Duration: 180, Incline: 0, Speed: 4},
				{ID: "5", Name: "Sprint final", Duration: 120, Incline: 3, Speed: 9},
			}
		}
		programs = append(programs, p)
	}
	return programs
}
