package comparison

// TrialSeed derives the seed of one trial of one candidate from the run's
// base seed. Distinct (candidate, trial) pairs get well separated seeds.
func TrialSeed(base uint64, candidate, trial int) uint64 {
	z := base ^ (uint64(candidate)<<32 | uint64(uint32(trial)))
	// splitmix64 finalizer
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
