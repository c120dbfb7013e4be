package battle

// Morale shocks applied when a unit dies.
const (
	friendDeathMorale    = -0.05
	killMoraleBoost      = 0.02
	moraleShockRadius    = 150.0
	commanderDeathMorale = -0.15
)

// CombatResolver runs the attack loop every tick: each living unit with
// a hostile in range swings once its cooldown clears. Soldiers hit
// their AI-chosen target; everyone else hits whatever is closest.
type CombatResolver struct {
	world    *World
	soldiers *SoldierAI
	events   *Events
}

func NewCombatResolver(w *World, sai *SoldierAI, events *Events) *CombatResolver {
	return &CombatResolver{world: w, soldiers: sai, events: events}
}

// Resolve advances cooldowns and applies one step of combat.
func (c *CombatResolver) Resolve(dt float64) {
	var deaths []*Unit
	c.world.ForEach(func(u *Unit) {
		u.cooldownLeft -= dt
		if u.cooldownLeft > 0 {
			return
		}
		target := c.targetFor(u)
		if target == nil || u.DistanceTo(target.X, target.Y) > u.AttackRange {
			return
		}
		u.cooldownLeft = u.AttackCooldown
		target.HP -= u.AttackDamage * u.CombatModifier()
		if target.HP <= 0 && !target.Dead {
			target.Dead = true
			deaths = append(deaths, target)
			u.AdjustMorale(killMoraleBoost)
			c.events.Death(target, u.ID)
		}
	})
	for _, d := range deaths {
		c.world.Kill(d.ID)
		c.applyDeathShock(d)
	}
}

func (c *CombatResolver) targetFor(u *Unit) *Unit {
	if u.Rank == RankSoldier {
		if t, ok := c.soldiers.Target(u.ID); ok {
			return t
		}
	}
	t := c.world.NearestEnemy(u.Team, u.X, u.Y)
	if t == nil || u.DistanceTo(t.X, t.Y) > u.AttackRange {
		return nil
	}
	return t
}

// applyDeathShock ripples a death through nearby friendly morale. Dead
// commanders hit the whole squad's nerve harder.
func (c *CombatResolver) applyDeathShock(dead *Unit) {
	shock := friendDeathMorale
	if dead.Rank != RankSoldier {
		shock = commanderDeathMorale
	}
	c.world.ForEach(func(u *Unit) {
		if u.Team != dead.Team {
			return
		}
		if u.DistanceTo(dead.X, dead.Y) <= moraleShockRadius {
			u.AdjustMorale(shock)
		}
	})
}
