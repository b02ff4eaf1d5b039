package scheduler

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDominates(t *testing.T) {
	assert.True(t, Dominates(Objectives{0, 0, 0, -5}, Objectives{1, 0, 0, -5}))
	assert.False(t, Dominates(Objectives{1, 0, 0, -5}, Objectives{0, 0, 0, -5}))

	a, b := Objectives{0, 1, 0, -3}, Objectives{1, 0, 0, -4}
	assert.False(t, Dominates(a, b))
	assert.False(t, Dominates(b, a))

	same := Objectives{1, 2, 3, -4}
	assert.False(t, Dominates(same, same))
}

func randomObjectives(rng *rand.Rand, n int) []Objectives {
	objs := make([]Objectives, n)
	for i := range objs {
		objs[i] = Objectives{
			float64(rng.Intn(4)),
			float64(rng.Intn(4)),
			float64(rng.Intn(5)) / 2,
			-float64(rng.Intn(6)),
		}
	}
	return objs
}

func TestNonDominatedSort(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	objs := randomObjectives(rng, 60)

	fronts := NonDominatedSort(objs)
	require.NotEmpty(t, fronts)

	// 每个个体恰好属于一个前沿
	seen := make(map[int]int)
	for _, front := range fronts {
		for _, i := range front {
			seen[i]++
		}
	}
	require.Len(t, seen, len(objs))
	for i := range objs {
		assert.Equal(t, 1, seen[i])
	}

	// 第一前沿中的个体不被任何个体支配
	for _, i := range fronts[0] {
		for j := range objs {
			assert.False(t, Dominates(objs[j], objs[i]), "%v dominates %v", objs[j], objs[i])
		}
	}

	// 后面前沿中的个体一定被前一个前沿中的某个个体支配
	for r := 1; r < len(fronts); r++ {
		for _, i := range fronts[r] {
			dominated := false
			for _, j := range fronts[r-1] {
				if Dominates(objs[j], objs[i]) {
					dominated = true
					break
				}
			}
			assert.True(t, dominated)
		}
	}
}

func TestCrowdingDistance(t *testing.T) {
	objs := []Objectives{
		{0, 4, 1, -1},
		{1, 3, 1, -1},
		{2, 2, 1, -1},
		{4, 0, 1, -1},
	}
	front := []int{0, 1, 2, 3}

	distance := CrowdingDistance(objs, front)
	require.Len(t, distance, len(front))

	assert.True(t, math.IsInf(distance[0], 1))
	assert.True(t, math.IsInf(distance[3], 1))
	for _, d := range distance[1:3] {
		assert.False(t, math.IsInf(d, 0))
		assert.GreaterOrEqual(t, d, 0.0)
	}
	// 第一维: (2-0)/4，第二维: (4-2)/4
	assert.InDelta(t, 1.0, distance[1], 1e-9)
	// 第一维: (4-1)/4，第二维: (3-0)/4
	assert.InDelta(t, 1.5, distance[2], 1e-9)
}

func TestCrowdingDistanceSmallFront(t *testing.T) {
	objs := []Objectives{{0, 1, 0, 0}, {1, 0, 0, 0}}
	for _, d := range CrowdingDistance(objs, []int{0, 1}) {
		assert.True(t, math.IsInf(d, 1))
	}
}

func TestSelectByFronts(t *testing.T) {
	objs := []Objectives{
		{0, 0, 0, -5}, // 第一前沿
		{2, 2, 0, 0},  // 第三前沿
		{0, 3, 0, -5}, // 第二前沿
		{3, 0, 0, -5}, // 第二前沿
		{1, 1, 0, -5}, // 第二前沿，位于中间
	}

	assert.ElementsMatch(t, []int{0}, selectByFronts(objs, 1))
	// 第二前沿放不下时，先淘汰拥挤距离最小的中间个体
	assert.ElementsMatch(t, []int{0, 2, 3}, selectByFronts(objs, 3))
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4}, selectByFronts(objs, 5))
}
