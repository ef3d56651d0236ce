package scenario

import (
	"git.fiblab.net/general/common/v2/geometry"
	"github.com/tsinghua-fib-lab/signalopt/engine"
	"github.com/tsinghua-fib-lab/signalopt/entity/road"
	"github.com/tsinghua-fib-lab/signalopt/entity/signal"
	"github.com/tsinghua-fib-lab/signalopt/entity/vehicle"
)

func pt(x, y float64) geometry.Point {
	return geometry.Point{X: x, Y: y}
}

func def(start, end geometry.Point) road.Def {
	return road.Def{Start: start, End: end}
}

func init() {
	register(&Scenario{ID: 1, Name: "4-way", PhasesPerSignal: []int{4}, Build: buildFourWay})
	register(&Scenario{ID: 2, Name: "T-junction", PhasesPerSignal: []int{3}, Build: buildTJunction})
	register(&Scenario{ID: 3, Name: "Corridor(2)", PhasesPerSignal: []int{4, 4}, Build: buildCorridor})
	register(&Scenario{ID: 4, Name: "Grid2x2", PhasesPerSignal: []int{4, 4, 4, 4}, Build: buildGrid2x2})
	register(&Scenario{ID: 5, Name: "Arterial(3)", PhasesPerSignal: []int{3, 4, 3}, Build: buildArterial})
}

// buildFourWay 十字路口场景
// 功能：单个十字路口，每个方向两条车道，四个进口各为一个信号组
// 说明：道路0-7为外部进出口，8-19为路口内部连接段
func buildFourWay(config []int, render bool) (*engine.Engine, error) {
	const (
		a = 2.0  // 车道与轴线的偏移
		b = 12.0 // 停止线到路口中心的距离
		l = 60.0 // 外部路段长度
	)

	// 进口端点
	westRightStart, westRight := pt(-b-l, a), pt(-b, a)
	westLeftStart, westLeft := pt(-b-l, -a), pt(-b, -a)
	eastRightStart, eastRight := pt(b+l, -a), pt(b, -a)
	eastLeftStart, eastLeft := pt(b+l, a), pt(b, a)
	northRightStart, northRight := pt(-a, -b-l), pt(-a, -b)
	northLeftStart, northLeft := pt(a, -b-l), pt(a, -b)
	southRightStart, southRight := pt(a, b+l), pt(a, b)
	southLeftStart, southLeft := pt(-a, b+l), pt(-a, b)

	eng := engine.New(0, simSeed)
	eng.AddRoads([]road.Def{
		def(westRightStart, westRight),  // 0  西进口
		def(eastRightStart, eastRight),  // 1  东进口
		def(northRightStart, northRight), // 2  北进口
		def(southRightStart, southRight), // 3  南进口

		def(westLeft, westLeftStart),   // 4  西出口
		def(eastLeft, eastLeftStart),   // 5  东出口
		def(northLeft, northLeftStart), // 6  北出口
		def(southLeft, southLeftStart), // 7  南出口

		// 直行连接
		def(westRight, eastLeft),   // 8  西→东
		def(eastRight, westLeft),   // 9  东→西
		def(northRight, southLeft), // 10 北→南
		def(southRight, northLeft), // 11 南→北

		// 转向连接
		def(westRight, northLeft),  // 12 西→北
		def(westRight, southLeft),  // 13 西→南
		def(eastRight, northLeft),  // 14 东→北
		def(eastRight, southLeft),  // 15 东→南
		def(northRight, eastLeft),  // 16 北→东
		def(northRight, westLeft),  // 17 北→西
		def(southRight, eastLeft),  // 18 南→东
		def(southRight, westLeft),  // 19 南→西
	})

	if err := eng.AddIntersections(map[int][]int{
		8:  {10, 11, 12, 13, 14, 15, 16, 17, 18, 19},
		9:  {10, 11, 12, 13, 14, 15, 16, 17, 18, 19},
		10: {8, 9, 12, 13, 14, 15, 16, 17, 18, 19},
		11: {8, 9, 12, 13, 14, 15, 16, 17, 18, 19},
		12: {8, 9, 10, 11, 15, 18},
		13: {8, 9, 10, 11, 14, 16},
		14: {8, 9, 10, 11, 13, 17},
		15: {8, 9, 10, 11, 12, 19},
		16: {8, 9, 10, 11, 13, 19},
		17: {8, 9, 10, 11, 12, 18},
		18: {8, 9, 10, 11, 12, 17},
		19: {8, 9, 10, 11, 14, 16},
	}); err != nil {
		return nil, err
	}

	// 每个进口方向一个信号组
	if err := eng.AddTrafficSignal(
		[][]int{{0}, {1}, {2}, {3}},
		signal.Cycle{Durations: slicePhases(config, 0, 4)},
		120, 0.4, 20,
	); err != nil {
		return nil, err
	}

	if err := eng.AddGenerator(25, []vehicle.RouteSpec{
		{Weight: 3, Path: []int{0, 8, 5}},  // 西→东
		{Weight: 2, Path: []int{0, 12, 6}}, // 西→北
		{Weight: 2, Path: []int{0, 13, 7}}, // 西→南

		{Weight: 3, Path: []int{1, 9, 4}},  // 东→西
		{Weight: 2, Path: []int{1, 14, 6}}, // 东→北
		{Weight: 2, Path: []int{1, 15, 7}}, // 东→南

		{Weight: 3, Path: []int{2, 10, 7}}, // 北→南
		{Weight: 2, Path: []int{2, 16, 5}}, // 北→东
		{Weight: 2, Path: []int{2, 17, 4}}, // 北→西

		{Weight: 3, Path: []int{3, 11, 6}}, // 南→北
		{Weight: 2, Path: []int{3, 18, 5}}, // 南→东
		{Weight: 2, Path: []int{3, 19, 4}}, // 南→西
	}); err != nil {
		return nil, err
	}

	if render {
		eng.SetDisplay(engine.NewLogDisplay(eng, 0))
	}
	return eng, nil
}

// buildTJunction 丁字路口场景
// 功能：缺少东进口臂的三向路口，西/东进口合为一个信号组，南进口单独一组
func buildTJunction(config []int, render bool) (*engine.Engine, error) {
	const (
		a = 2.0
		b = 12.0
		l = 60.0
	)

	westRightStart, westRight := pt(-b-l, a), pt(-b, a)
	westLeftStart, westLeft := pt(-b-l, -a), pt(-b, -a)
	southRightStart, southRight := pt(a, b+l), pt(a, b)
	southLeftStart, southLeft := pt(-a, b+l), pt(-a, b)
	eastRightStart, eastRight := pt(b+l, -a), pt(b, -a)
	eastLeftStart, eastLeft := pt(b+l, a), pt(b, a)

	eng := engine.New(0, simSeed)
	eng.AddRoads([]road.Def{
		def(westRightStart, westRight),   // 0 西进口
		def(southRightStart, southRight), // 1 南进口
		def(eastRightStart, eastRight),   // 2 东进口

		def(westLeft, westLeftStart),   // 3 西出口
		def(southLeft, southLeftStart), // 4 南出口
		def(eastLeft, eastLeftStart),   // 5 东出口

		def(westRight, eastLeft),  // 6 西→东
		def(eastRight, westLeft),  // 7 东→西
		def(southRight, westLeft), // 8 南→西
		def(southRight, eastLeft), // 9 南→东
	})

	if err := eng.AddIntersections(map[int][]int{
		6: {8, 9}, 7: {8, 9}, 8: {6, 7}, 9: {6, 7},
	}); err != nil {
		return nil, err
	}

	// 两个信号组：(西/东)与(南)
	if err := eng.AddTrafficSignal(
		[][]int{{0, 2}, {1}},
		signal.Cycle{Durations: slicePhases(config, 0, 4)},
		120, 0.4, 20,
	); err != nil {
		return nil, err
	}

	if err := eng.AddGenerator(20, []vehicle.RouteSpec{
		{Weight: 3, Path: []int{0, 6, 5}}, // 西→东
		{Weight: 3, Path: []int{2, 7, 3}}, // 东→西
		{Weight: 2, Path: []int{1, 8, 3}}, // 南→西
		{Weight: 2, Path: []int{1, 9, 5}}, // 南→东
	}); err != nil {
		return nil, err
	}

	if render {
		eng.SetDisplay(engine.NewLogDisplay(eng, 0))
	}
	return eng, nil
}

// buildCorridor 双路口走廊场景
// 功能：东西走廊上串联的两个路口A、B，各带四个进口信号组，
// 候选解前4位分配给A，后4位分配给B
func buildCorridor(config []int, render bool) (*engine.Engine, error) {
	const (
		ax, ay = 420.0, 360.0
		bx, by = 860.0, 360.0
		l      = 300.0
	)

	eng := engine.New(0, simSeed)
	eng.AddRoads([]road.Def{
		def(pt(ax, ay-l), pt(ax, ay)), // 0  北→A
		def(pt(ax, ay), pt(ax, ay-l)), // 1  A→北
		def(pt(ax, ay+l), pt(ax, ay)), // 2  南→A
		def(pt(ax, ay), pt(ax, ay+l)), // 3  A→南
		def(pt(ax-l, ay), pt(ax, ay)), // 4  西→A
		def(pt(ax, ay), pt(ax-l, ay)), // 5  A→西
		def(pt(ax, ay), pt(bx, by)),   // 6  A→B
		def(pt(bx, by), pt(ax, ay)),   // 7  B→A
		def(pt(bx, by-l), pt(bx, by)), // 8  北→B
		def(pt(bx, by), pt(bx, by-l)), // 9  B→北
		def(pt(bx, by+l), pt(bx, by)), // 10 南→B
		def(pt(bx, by), pt(bx, by+l)), // 11 B→南
		def(pt(bx+l, by), pt(bx, by)), // 12 东→B
		def(pt(bx, by), pt(bx+l, by)), // 13 B→东
	})

	if err := eng.AddIntersections(map[int][]int{
		0: {2, 4, 6}, 1: {3, 5, 7}, 2: {0, 4, 6}, 3: {1, 5, 7},
		4: {0, 2, 6}, 5: {1, 3, 7}, 6: {0, 2, 4, 8, 10, 12}, 7: {1, 3, 5, 9, 11, 13},
		8: {6, 10, 12}, 9: {7, 11, 13}, 10: {6, 8, 12}, 11: {7, 9, 13},
		12: {6, 8, 10}, 13: {7, 9, 11},
	}); err != nil {
		return nil, err
	}

	// A路口进口：0（北）、2（南）、4（西）、7（来自B）
	if err := eng.AddTrafficSignal(
		[][]int{{0}, {2}, {4}, {7}},
		signal.Cycle{Durations: slicePhases(config, 0, 4)},
		50, 0.4, 15,
	); err != nil {
		return nil, err
	}

	// B路口进口：8（北）、10（南）、12（东）、6（来自A）
	if err := eng.AddTrafficSignal(
		[][]int{{8}, {10}, {12}, {6}},
		signal.Cycle{Durations: slicePhases(config, 4, 8)},
		50, 0.4, 15,
	); err != nil {
		return nil, err
	}

	if err := eng.AddGenerator(0.90, []vehicle.RouteSpec{
		{Weight: 1, Paths: [][]int{{0, 3, 7, 9}, {0, 3, 7, 11}, {0, 3, 7, 13}}},
		{Weight: 1, Paths: [][]int{{2, 1, 7, 9}, {2, 1, 7, 11}, {2, 1, 7, 13}}},
		{Weight: 1, Paths: [][]int{{4, 1, 7, 9}, {4, 1, 7, 11}, {4, 1, 7, 13}}},
		{Weight: 1, Paths: [][]int{{8, 11}, {8, 13}, {8, 6, 1}, {8, 6, 3}, {8, 6, 5}}},
		{Weight: 1, Paths: [][]int{{10, 9}, {10, 13}, {10, 6, 1}, {10, 6, 3}, {10, 6, 5}}},
		{Weight: 1, Paths: [][]int{{12, 9}, {12, 11}, {12, 6, 1}, {12, 6, 3}, {12, 6, 5}}},
	}); err != nil {
		return nil, err
	}

	if render {
		eng.SetDisplay(engine.NewLogDisplay(eng, 0))
	}
	return eng, nil
}

// buildGrid2x2 2x2网格场景
// 功能：四个路口组成的网格，每个路口四个进口信号组，
// 候选解按TL/TR/BL/BR的顺序每4位分配给一个路口
func buildGrid2x2(config []int, render bool) (*engine.Engine, error) {
	const (
		tlX, tlY = 420.0, 260.0
		trX, trY = 860.0, 260.0
		blX, blY = 420.0, 460.0
		brX, brY = 860.0, 460.0
		l        = 200.0
	)

	eng := engine.New(0, simSeed)
	eng.AddRoads([]road.Def{
		// TL外部
		def(pt(tlX, tlY-l), pt(tlX, tlY)), // 0  北→TL
		def(pt(tlX, tlY), pt(tlX, tlY-l)), // 1  TL→北
		def(pt(tlX-l, tlY), pt(tlX, tlY)), // 2  西→TL
		def(pt(tlX, tlY), pt(tlX-l, tlY)), // 3  TL→西

		// TR外部
		def(pt(trX, trY-l), pt(trX, trY)), // 4  北→TR
		def(pt(trX, trY), pt(trX, trY-l)), // 5  TR→北
		def(pt(trX+l, trY), pt(trX, trY)), // 6  东→TR
		def(pt(trX, trY), pt(trX+l, trY)), // 7  TR→东

		// BL外部
		def(pt(blX, blY+l), pt(blX, blY)), // 8  南→BL
		def(pt(blX, blY), pt(blX, blY+l)), // 9  BL→南
		def(pt(blX-l, blY), pt(blX, blY)), // 10 西→BL
		def(pt(blX, blY), pt(blX-l, blY)), // 11 BL→西

		// BR外部
		def(pt(brX, brY+l), pt(brX, brY)), // 12 南→BR
		def(pt(brX, brY), pt(brX, brY+l)), // 13 BR→南
		def(pt(brX+l, brY), pt(brX, brY)), // 14 东→BR
		def(pt(brX, brY), pt(brX+l, brY)), // 15 BR→东

		// 内部连接
		def(pt(tlX, tlY), pt(trX, trY)), // 16 TL→TR
		def(pt(trX, trY), pt(tlX, tlY)), // 17 TR→TL
		def(pt(tlX, tlY), pt(blX, blY)), // 18 TL→BL
		def(pt(blX, blY), pt(tlX, tlY)), // 19 BL→TL
		def(pt(trX, trY), pt(brX, brY)), // 20 TR→BR
		def(pt(brX, brY), pt(trX, trY)), // 21 BR→TR
		def(pt(blX, blY), pt(brX, brY)), // 22 BL→BR
		def(pt(brX, brY), pt(blX, blY)), // 23 BR→BL
	})

	if err := eng.AddIntersections(map[int][]int{
		// TL
		0: {2, 17, 19}, 1: {3, 16, 18}, 2: {0, 17, 19}, 3: {1, 16, 18},
		16: {1, 3, 20, 22}, 17: {0, 2, 21, 23}, 18: {1, 3, 20, 22}, 19: {0, 2, 21, 23},
		// TR
		4: {6, 16, 21}, 5: {7, 17, 20}, 6: {4, 16, 21}, 7: {5, 17, 20},
		20: {5, 7, 12, 22}, 21: {4, 6, 13, 23},
		// BL
		8: {10, 19, 23}, 9: {11, 18, 22}, 10: {8, 19, 23}, 11: {9, 18, 22},
		22: {9, 11, 13, 20}, 23: {8, 10, 12, 21},
		// BR
		12: {14, 20, 22}, 13: {15, 21, 23}, 14: {12, 20, 22}, 15: {13, 21, 23},
	}); err != nil {
		return nil, err
	}

	signals := []struct {
		groups [][]int
		from   int
	}{
		{[][]int{{0}, {2}, {17}, {19}}, 0},  // TL
		{[][]int{{4}, {6}, {16}, {21}}, 4},  // TR
		{[][]int{{8}, {10}, {19}, {23}}, 8}, // BL
		{[][]int{{12}, {14}, {20}, {22}}, 12}, // BR
	}
	for _, s := range signals {
		if err := eng.AddTrafficSignal(
			s.groups,
			signal.Cycle{Durations: slicePhases(config, s.from, s.from+4)},
			50, 0.4, 15,
		); err != nil {
			return nil, err
		}
	}

	if err := eng.AddGenerator(0.80, []vehicle.RouteSpec{
		{Weight: 1, Paths: [][]int{{0, 1, 17, 5}, {0, 1, 17, 7}, {0, 1, 17, 16, 21, 13}, {0, 1, 17, 16, 21, 15}}},
		{Weight: 1, Paths: [][]int{{4, 5, 16, 1}, {4, 5, 16, 3}, {4, 5, 16, 17, 19, 9}, {4, 5, 16, 17, 19, 11}}},
		{Weight: 1, Paths: [][]int{{2, 3, 19, 9}, {2, 3, 19, 11}, {2, 3, 19, 18, 23, 13}, {2, 3, 19, 18, 23, 15}}},
		{Weight: 1, Paths: [][]int{{6, 7, 21, 13}, {6, 7, 21, 15}, {6, 7, 21, 20, 22, 9}, {6, 7, 21, 20, 22, 11}}},
		{Weight: 1, Paths: [][]int{{10, 11, 18, 1}, {10, 11, 18, 3}, {10, 11, 18, 19, 17, 5}, {10, 11, 18, 19, 17, 7}}},
		{Weight: 1, Paths: [][]int{{8, 9, 23, 13}, {8, 9, 23, 15}, {8, 9, 23, 20, 16, 1}, {8, 9, 23, 20, 16, 3}}},
		{Weight: 1, Paths: [][]int{{12, 13, 22, 9}, {12, 13, 22, 11}, {12, 13, 22, 18, 17, 5}, {12, 13, 22, 18, 17, 7}}},
		{Weight: 1, Paths: [][]int{{14, 15, 20, 1}, {14, 15, 20, 3}, {14, 15, 20, 16, 19, 9}, {14, 15, 20, 16, 19, 11}}},
	}); err != nil {
		return nil, err
	}

	if render {
		eng.SetDisplay(engine.NewLogDisplay(eng, 0))
	}
	return eng, nil
}

// buildArterial 三路口干线场景
// 功能：南北干线上串联的三个路口（顶/中/底），相位数分别为3/4/3，
// 候选解按[0:3)/[3:7)/[7:10)切片分配
func buildArterial(config []int, render bool) (*engine.Engine, error) {
	const (
		tx, ty = 640.0, 180.0
		mx, my = 640.0, 360.0
		bx, by = 640.0, 540.0
		s      = 250.0 // 横向路段长度
	)

	eng := engine.New(0, simSeed)
	eng.AddRoads([]road.Def{
		// 顶部路口
		def(pt(tx, ty-200), pt(tx, ty)), // 0  北→顶
		def(pt(tx, ty), pt(tx, ty-200)), // 1  顶→北
		def(pt(tx+s, ty), pt(tx, ty)),   // 2  东→顶
		def(pt(tx, ty), pt(tx+s, ty)),   // 3  顶→东

		// 中部路口
		def(pt(mx+s, my), pt(mx, my)), // 4  东→中
		def(pt(mx, my), pt(mx+s, my)), // 5  中→东
		def(pt(mx-s, my), pt(mx, my)), // 6  西→中
		def(pt(mx, my), pt(mx-s, my)), // 7  中→西

		// 底部路口
		def(pt(bx, by+200), pt(bx, by)), // 8  南→底
		def(pt(bx, by), pt(bx, by+200)), // 9  底→南
		def(pt(bx+s, by), pt(bx, by)),   // 10 东→底
		def(pt(bx, by), pt(bx+s, by)),   // 11 底→东

		// 干线连接
		def(pt(tx, ty), pt(mx, my)), // 12 顶→中
		def(pt(mx, my), pt(tx, ty)), // 13 中→顶
		def(pt(mx, my), pt(bx, by)), // 14 中→底
		def(pt(bx, by), pt(mx, my)), // 15 底→中
	})

	if err := eng.AddIntersections(map[int][]int{
		0: {2, 13}, 1: {3, 12}, 2: {0, 13}, 3: {1, 12},
		12: {1, 3, 4, 6, 14}, 13: {0, 2, 5, 7, 15},
		4: {6, 13, 14}, 5: {7, 12, 15}, 6: {4, 12, 14}, 7: {5, 13, 15},
		14: {4, 6, 12, 8, 10}, 15: {5, 7, 13, 9, 11},
		8: {10, 15}, 9: {11, 14}, 10: {8, 15}, 11: {9, 14},
	}); err != nil {
		return nil, err
	}

	// 顶部进口：0（北）、2（东）、13（来自中）
	if err := eng.AddTrafficSignal(
		[][]int{{0}, {2}, {13}},
		signal.Cycle{Durations: slicePhases(config, 0, 3)},
		50, 0.4, 15,
	); err != nil {
		return nil, err
	}

	// 中部进口：4（东）、6（西）、12（来自顶）、15（来自底）
	if err := eng.AddTrafficSignal(
		[][]int{{4}, {6}, {12}, {15}},
		signal.Cycle{Durations: slicePhases(config, 3, 7)},
		50, 0.4, 15,
	); err != nil {
		return nil, err
	}

	// 底部进口：8（南）、10（东）、14（来自中）
	if err := eng.AddTrafficSignal(
		[][]int{{8}, {10}, {14}},
		signal.Cycle{Durations: slicePhases(config, 7, 10)},
		50, 0.4, 15,
	); err != nil {
		return nil, err
	}

	if err := eng.AddGenerator(0.90, []vehicle.RouteSpec{
		{Weight: 1, Paths: [][]int{{0, 1, 13, 5}, {0, 1, 13, 7}, {0, 1, 13, 15, 9}, {0, 1, 13, 15, 11}}},
		{Weight: 1, Paths: [][]int{{2, 3, 12, 5}, {2, 3, 12, 7}, {2, 3, 12, 15, 9}, {2, 3, 12, 15, 11}}},
		{Weight: 1, Paths: [][]int{{4, 5, 15, 9}, {4, 5, 15, 11}, {4, 5, 12, 1}, {4, 5, 12, 3}}},
		{Weight: 1, Paths: [][]int{{6, 7, 12, 1}, {6, 7, 12, 3}, {6, 7, 15, 9}, {6, 7, 15, 11}}},
		{Weight: 1, Paths: [][]int{{8, 9, 14, 5}, {8, 9, 14, 7}, {8, 9, 14, 12, 1}, {8, 9, 14, 12, 3}}},
		{Weight: 1, Paths: [][]int{{10, 11, 14, 5}, {10, 11, 14, 7}, {10, 11, 14, 12, 1}, {10, 11, 14, 12, 3}}},
	}); err != nil {
		return nil, err
	}

	if render {
		eng.SetDisplay(engine.NewLogDisplay(eng, 0))
	}
	return eng, nil
}
