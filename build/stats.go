package build

import "time"

type BlockStat struct {
	Name         string
	StartAddress uint32
	Allocated    uint32
	Used         uint32
	HasCRC       bool
	CRC          uint64
	CRCAddress   uint32
}

// Efficiency is Used as a percentage of Allocated.
func (b BlockStat) Efficiency() float64 {
	if b.Allocated == 0 {
		return 0
	}
	return float64(b.Used) * 100 / float64(b.Allocated)
}

// Stats summarises the successful blocks of a build.
type Stats struct {
	Blocks    int
	Failed    int
	Allocated uint64
	Used      uint64
	Elapsed   time.Duration
	PerBlock  []BlockStat
}

// Efficiency is the total used space as a percentage of the total
// allocation.
func (s Stats) Efficiency() float64 {
	if s.Allocated == 0 {
		return 0
	}
	return float64(s.Used) * 100 / float64(s.Allocated)
}

func (r *Report) Stats() Stats {
	s := Stats{Elapsed: r.Elapsed, Failed: r.Failed()}
	for _, res := range r.Results {
		dr := res.Range
		if dr == nil {
			continue
		}
		s.Blocks++
		s.Allocated += uint64(dr.AllocatedSize)
		s.Used += uint64(dr.UsedSize)
		s.PerBlock = append(s.PerBlock, BlockStat{
			Name:         dr.Name,
			StartAddress: dr.StartAddress,
			Allocated:    dr.AllocatedSize,
			Used:         dr.UsedSize,
			HasCRC:       dr.HasCRC(),
			CRC:          dr.CRCValue,
			CRCAddress:   dr.CRCAddress,
		})
	}
	return s
}
