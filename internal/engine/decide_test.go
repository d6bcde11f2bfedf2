package engine

import (
	"reflect"
	"testing"

	"focusfire.ai/internal/host"
	"focusfire.ai/internal/registry"
	"focusfire.ai/internal/tuning"
)

// script replays a fixed sequence of random draws; exhausted scripts return 0.
type script []int

func (s *script) Intn(n int) int {
	if len(*s) == 0 {
		return 0
	}
	v := (*s)[0]
	*s = (*s)[1:]
	return v % n
}

func snapFor(role host.Role, turn int) Snapshot {
	return Snapshot{
		Turn:  turn,
		Round: turn,
		Self: host.Self{
			ID:             1,
			Role:           role,
			Team:           host.TeamA,
			Pos:            host.Position{X: 10, Y: 10},
			Health:         50,
			ActionRadiusSq: 13,
			VisionRadiusSq: 20,
		},
	}
}

func enemy(id int, role host.Role, x, y, hp int) host.SensedAgent {
	return host.SensedAgent{ID: id, Role: role, Team: host.TeamB, Pos: host.Position{X: x, Y: y}, Health: hp}
}

func assertIntents(t *testing.T, p Plan, want ...Intent) {
	t.Helper()
	if !reflect.DeepEqual(p.Intents, want) {
		t.Fatalf("plan mismatch\n got: %s\nwant: %s", p, Plan{Role: p.Role, Intents: want})
	}
}

func TestDecideCommander_BuildSchedule(t *testing.T) {
	cases := map[int]host.Role{
		1:   host.Harvester,
		40:  host.Harvester,
		49:  host.Harvester,
		50:  host.Melee,
		300: host.Melee,
		500: host.Melee,
		501: host.Harvester,
		520: host.Harvester,
		549: host.Harvester,
		550: host.Melee,
	}
	for turn, want := range cases {
		rng := script{2}
		p := Decide(snapFor(host.Commander, turn), &rng, tuning.Defaults())
		assertIntents(t, p, Build(want, host.East))
	}
}

func TestDecideBuilder_CasterThenCoinFlip(t *testing.T) {
	tune := tuning.Defaults()

	s := snapFor(host.Builder, 7)
	s.SecondaryStock = 50
	rng := script{0, 1}
	assertIntents(t, Decide(s, &rng, tune), Build(host.Caster, host.North), Build(host.Converter, host.North))

	s.SecondaryStock = 49
	rng = script{3, 0}
	assertIntents(t, Decide(s, &rng, tune), Build(host.RangedTower, host.SouthEast))
}

func TestDecideRangedTower_AttacksFirstAndNeverMoves(t *testing.T) {
	s := snapFor(host.RangedTower, 3)
	s.Enemies = []host.SensedAgent{enemy(7, host.Melee, 11, 11, 50), enemy(8, host.Commander, 12, 12, 100)}
	rng := script{}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), Attack(host.Position{X: 11, Y: 11}))

	s.Enemies = nil
	if p := Decide(s, &rng, tuning.Defaults()); len(p.Intents) != 0 {
		t.Fatalf("idle tower should do nothing, got %s", p)
	}
}

func TestDecideConverterAndCaster(t *testing.T) {
	rng := script{}
	assertIntents(t, Decide(snapFor(host.Converter, 1), &rng, tuning.Defaults()), Transmute())
	if p := Decide(snapFor(host.Caster, 1), &rng, tuning.Defaults()); len(p.Intents) != 0 {
		t.Fatalf("caster should be idle, got %s", p)
	}
}

func TestDecideHarvester_MinesNeighborhoodThenWalksToRichest(t *testing.T) {
	s := snapFor(host.Harvester, 5)
	s.Visible = []Cell{
		{Pos: host.Position{X: 13, Y: 10}, Primary: 20},
		{Pos: host.Position{X: 10, Y: 14}, Primary: 2, Secondary: 3},
		{Pos: host.Position{X: 7, Y: 7}, Primary: 10},
	}
	rng := script{4}
	p := Decide(s, &rng, tuning.Defaults())
	if len(p.Intents) != 19 {
		t.Fatalf("want 18 mines and a move, got %s", p)
	}
	first, second := p.Intents[0], p.Intents[1]
	if first != Mine(host.Secondary, host.Position{X: 9, Y: 9}, 0) || second != Mine(host.Primary, host.Position{X: 9, Y: 9}, 1) {
		t.Fatalf("secondary must be mined before primary, got %s then %s", first, second)
	}
	want := Move(host.North).Or(Move(host.South))
	if !reflect.DeepEqual(p.Intents[18], want) {
		t.Fatalf("walk: got %s want %s", p.Intents[18], want)
	}
}

func TestDecideHarvester_PoorCellsMeanWander(t *testing.T) {
	s := snapFor(host.Harvester, 5)
	s.Visible = []Cell{{Pos: host.Position{X: 13, Y: 10}, Primary: 15}}
	rng := script{6}
	p := Decide(s, &rng, tuning.Defaults())
	if got := p.Intents[len(p.Intents)-1]; got != Move(host.West) {
		t.Fatalf("got %s", got)
	}
}

func TestDecideHarvester_ReportsLeaderOnlyWhenRegistryEmpty(t *testing.T) {
	s := snapFor(host.Harvester, 5)
	s.Enemies = []host.SensedAgent{enemy(4, host.Melee, 11, 10, 50), enemy(5, host.Commander, 12, 11, 100)}
	rng := script{}
	p := Decide(s, &rng, tuning.Defaults())
	if got := p.Intents[len(p.Intents)-1]; got != PublishPriority(host.Position{X: 12, Y: 11}) {
		t.Fatalf("got %s", got)
	}

	s.Registry = registry.Snapshot{HasPriority: true, Priority: host.Position{X: 1, Y: 1}}
	p = Decide(s, &rng, tuning.Defaults())
	for _, in := range p.Intents {
		if in.Kind == KindPublishPriority {
			t.Fatalf("must not overwrite a recorded leader: %s", p)
		}
	}
}

func TestDecideMelee_AdvancesOnDistantLeader(t *testing.T) {
	s := snapFor(host.Melee, 9)
	s.Registry = registry.Snapshot{HasPriority: true, Priority: host.Position{X: 20, Y: 10}}
	rng := script{5, 5}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), Move(host.East))
	if len(rng) != 1 {
		t.Fatalf("the random step is drawn every turn, %d draws left", len(rng))
	}
}

func TestDecideMelee_RetractsDyingLeaderBeforeAttacking(t *testing.T) {
	s := snapFor(host.Melee, 9)
	leader := enemy(3, host.Commander, 11, 11, 3)
	s.Registry = registry.Snapshot{HasPriority: true, Priority: leader.Pos}
	s.PriorityVisible, s.PriorityOccupied, s.PriorityOccupant = true, true, leader
	rng := script{}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), RetractPriority(3), Attack(leader.Pos))

	s.PriorityOccupant.Health = 4
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), Attack(leader.Pos))
}

func TestDecideMelee_NotesVacantLeaderCell(t *testing.T) {
	s := snapFor(host.Melee, 9)
	s.Registry = registry.Snapshot{HasPriority: true, Priority: host.Position{X: 11, Y: 11}}
	s.PriorityVisible = true
	rng := script{}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), NoteVacant(9))
}

func TestDecideMelee_SightingAfterVacancyResetsCount(t *testing.T) {
	s := snapFor(host.Melee, 9)
	leader := enemy(3, host.Commander, 11, 11, 80)
	s.Registry = registry.Snapshot{HasPriority: true, Priority: leader.Pos, Vacancy: 2, VacancyRound: 8}
	s.PriorityVisible, s.PriorityOccupied, s.PriorityOccupant = true, true, leader
	rng := script{}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), NoteOccupied(), Attack(leader.Pos))
}

func TestDecideMelee_PublishesAndEngagesSpottedLeader(t *testing.T) {
	s := snapFor(host.Melee, 9)
	leader := enemy(3, host.Commander, 12, 11, 100)
	s.Enemies = []host.SensedAgent{enemy(2, host.Melee, 11, 10, 50), leader}
	rng := script{}
	assertIntents(t, Decide(s, &rng, tuning.Defaults()), PublishPriority(leader.Pos), Attack(leader.Pos))
}

func TestDecideMelee_FocusFire(t *testing.T) {
	tune := tuning.Defaults()
	nearest := enemy(2, host.Harvester, 11, 10, 40)
	marked := enemy(9, host.Melee, 12, 12, 30)

	s := snapFor(host.Melee, 9)
	s.Enemies = []host.SensedAgent{nearest, marked}
	rng := script{1}
	assertIntents(t, Decide(s, &rng, tune), PublishOrdinary(2), Move(host.NorthEast))

	s.Registry = registry.Snapshot{HasOrdinary: true, OrdinaryID: 9}
	s.OrdinarySensed, s.Ordinary = true, marked
	rng = script{1}
	assertIntents(t, Decide(s, &rng, tune), Attack(marked.Pos).Or(Attack(nearest.Pos)), Move(host.NorthEast))

	s.Ordinary.Health = 2
	rng = script{1}
	assertIntents(t, Decide(s, &rng, tune), Attack(marked.Pos), RetractOrdinary(2), Move(host.NorthEast))

	s.OrdinarySensed = false
	rng = script{1}
	assertIntents(t, Decide(s, &rng, tune), Attack(nearest.Pos), Move(host.NorthEast))

	s.Enemies = nil
	rng = script{7}
	assertIntents(t, Decide(s, &rng, tune), Move(host.NorthWest))
}

func TestDecide_DeterministicForSameInputs(t *testing.T) {
	s := snapFor(host.Builder, 3)
	s.SecondaryStock = 60
	a, b := script{3, 1, 4, 1}, script{3, 1, 4, 1}
	if !reflect.DeepEqual(Decide(s, &a, tuning.Defaults()), Decide(s, &b, tuning.Defaults())) {
		t.Fatalf("same snapshot and draws must give the same plan")
	}
}
