package scheduler

import (
	"cmp"
	"math"
	"slices"
)

// Objectives: (教师冲突, 班级冲突, 负载方差, -适合度)，每一维都越小越好
type Objectives [4]float64

// Dominates 当 a 在所有维度上都不差于 b 且至少一维严格更好时返回 true
func Dominates(a, b Objectives) bool {
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// NonDominatedSort 把个体划分为若干前沿，返回每个前沿中的个体下标
func NonDominatedSort(objs []Objectives) [][]int {
	n := len(objs)
	dominatedCount := make([]int, n)
	dominating := make([][]int, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			switch {
			case Dominates(objs[i], objs[j]):
				dominating[i] = append(dominating[i], j)
				dominatedCount[j]++
			case Dominates(objs[j], objs[i]):
				dominating[j] = append(dominating[j], i)
				dominatedCount[i]++
			}
		}
	}

	var current []int
	for i := 0; i < n; i++ {
		if dominatedCount[i] == 0 {
			current = append(current, i)
		}
	}

	var fronts [][]int
	for len(current) > 0 {
		fronts = append(fronts, current)
		var next []int
		for _, i := range current {
			for _, j := range dominating[i] {
				dominatedCount[j]--
				if dominatedCount[j] == 0 {
					next = append(next, j)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	return fronts
}

/**
 * CrowdingDistance 计算前沿中每个个体的拥挤距离，结果与 front 一一对应
 * 对于每一维目标：两端的个体距离为无穷大，中间的个体累加相邻两个个体的归一化差值
 * 某一维在前沿中取值全部相同时跳过这一维
 */
func CrowdingDistance(objs []Objectives, front []int) []float64 {
	distance := make([]float64, len(front))
	if len(front) <= 2 {
		for i := range distance {
			distance[i] = math.Inf(1)
		}
		return distance
	}

	order := make([]int, len(front))
	for k := range len(Objectives{}) {
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(objs[front[a]][k], objs[front[b]][k])
		})

		first, last := order[0], order[len(order)-1]
		spread := objs[front[last]][k] - objs[front[first]][k]
		if spread == 0 {
			continue
		}

		distance[first] = math.Inf(1)
		distance[last] = math.Inf(1)
		for i := 1; i < len(order)-1; i++ {
			distance[order[i]] += (objs[front[order[i+1]]][k] - objs[front[order[i-1]]][k]) / spread
		}
	}

	return distance
}

// rankAndCrowding 返回每个个体所在前沿的序号和拥挤距离
func rankAndCrowding(objs []Objectives) (fronts [][]int, rank []int, crowding []float64) {
	fronts = NonDominatedSort(objs)
	rank = make([]int, len(objs))
	crowding = make([]float64, len(objs))
	for r, front := range fronts {
		distance := CrowdingDistance(objs, front)
		for i, idx := range front {
			rank[idx] = r
			crowding[idx] = distance[i]
		}
	}
	return fronts, rank, crowding
}

// selectByFronts 按前沿顺序挑选 n 个个体，放不下的那个前沿按拥挤距离从大到小截断
func selectByFronts(objs []Objectives, n int) []int {
	selected := make([]int, 0, n)
	for _, front := range NonDominatedSort(objs) {
		if len(selected) >= n {
			break
		}
		if len(selected)+len(front) <= n {
			selected = append(selected, front...)
			continue
		}

		distance := CrowdingDistance(objs, front)
		order := make([]int, len(front))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return cmp.Compare(distance[b], distance[a])
		})
		for _, i := range order[:n-len(selected)] {
			selected = append(selected, front[i])
		}
	}
	return selected
}
