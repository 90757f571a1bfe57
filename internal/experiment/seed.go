package experiment

// DeriveSeed mixes a base seed with a combination index and an attempt number
// (splitmix64 finalizer). Results depend only on the three inputs, so a sweep
// gives the same numbers with any worker count.
func DeriveSeed(base int64, index, attempt int) int64 {
	z := uint64(base) + uint64(index)*0x9e3779b97f4a7c15 + uint64(attempt)*0xd1b54a32d192ed03
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z >> 1)
}
