package ground

// editDistance computes the Levenshtein distance between two strings,
// giving up once the distance is guaranteed to exceed maxDist. Returns
// maxDist+1 in that case. Operates on bytes; inputs are expected to be
// normalized already.
func editDistance(a, b string, maxDist int) int {
	if a == b {
		return 0
	}
	if diff := len(a) - len(b); diff > maxDist || -diff > maxDist {
		return maxDist + 1
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := prev[j-1] + cost
			if v := prev[j] + 1; v < d {
				d = v
			}
			if v := curr[j-1] + 1; v < d {
				d = v
			}
			curr[j] = d
			if d < rowMin {
				rowMin = d
			}
		}
		if rowMin > maxDist {
			return maxDist + 1
		}
		prev, curr = curr, prev
	}

	if prev[len(b)] > maxDist {
		return maxDist + 1
	}
	return prev[len(b)]
}
