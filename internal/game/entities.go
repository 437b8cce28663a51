package game

import (
	"log"
	"math/rand"
	"slices"

	"endless-runner/internal/config"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// IDGenerator produces globally unique entity ids.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

// Collection is a collectible picked up by the local player this frame.
type Collection struct {
	ID      string
	Kind    Kind
	Points  int
	Sponsor string
}

// AdvanceResult is what one frame of entity movement produced.
type AdvanceResult struct {
	Hit       *Entity // Obstacle that ended the session, if any
	Collected []Collection
}

// Wave is everything one spawn tick created.
type Wave struct {
	Obstacles   []*Entity
	Collectible *Entity
	Sponsor     *Entity
	Banner      *Entity
}

// Manager owns the live sets of obstacles, collectibles, sponsor
// collectibles and sponsor banners. Each set is scanned tail-to-head so
// removal by index during the scan is safe.
type Manager struct {
	cfg       config.GameConfig
	scene     Scene
	templates map[Kind]Template
	rng       *rand.Rand
	newID     IDGenerator

	obstacles    []*Entity
	collectibles []*Entity
	sponsors     []*Entity
	banners      []*Entity

	// Ids learned from peers this session. Kept after removal so a
	// re-delivered spawn cannot resurrect an entity.
	remoteIDs map[string]struct{}

	travelled  float64
	nextBanner float64
}

// NewManager creates an empty entity manager. A nil rng or id generator
// falls back to a time-seeded source and UUIDs.
func NewManager(cfg config.GameConfig, scene Scene, rng *rand.Rand, newID IDGenerator) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if newID == nil {
		newID = NewUUID
	}
	return &Manager{
		cfg:        cfg,
		scene:      scene,
		templates:  make(map[Kind]Template),
		rng:        rng,
		newID:      newID,
		remoteIDs:  make(map[string]struct{}),
		nextBanner: cfg.BannerInterval,
	}
}

// SetTemplate registers the visual template for a kind.
func (m *Manager) SetTemplate(tpl Template) {
	m.templates[tpl.Kind()] = tpl
}

func (m *Manager) set(k Kind) *[]*Entity {
	switch k {
	case KindObstacle:
		return &m.obstacles
	case KindCollectible:
		return &m.collectibles
	case KindSponsorCollectible:
		return &m.sponsors
	case KindSponsorBanner:
		return &m.banners
	}
	return nil
}

// Count returns the number of live entities of a kind.
func (m *Manager) Count(k Kind) int {
	if s := m.set(k); s != nil {
		return len(*s)
	}
	return 0
}

// Entities returns copies of the live entities of a kind.
func (m *Manager) Entities(k Kind) []Entity {
	s := m.set(k)
	if s == nil {
		return nil
	}
	out := make([]Entity, 0, len(*s))
	for _, e := range *s {
		out = append(out, *e)
	}
	return out
}

// Find returns the live entity with the given id.
func (m *Manager) Find(k Kind, id string) (*Entity, bool) {
	s := m.set(k)
	if s == nil {
		return nil, false
	}
	for _, e := range *s {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Travelled returns the world distance covered this session.
func (m *Manager) Travelled() float64 {
	return m.travelled
}

func (m *Manager) add(e *Entity) {
	if tpl, ok := m.templates[e.Kind]; ok && m.scene != nil {
		e.Handle = m.scene.Spawn(tpl, e.Position)
	}
	s := m.set(e.Kind)
	*s = append(*s, e)
}

func (m *Manager) removeAt(k Kind, i int) {
	s := m.set(k)
	e := (*s)[i]
	if e.Handle != 0 && m.scene != nil {
		m.scene.Remove(e.Handle)
	}
	*s = slices.Delete(*s, i, i+1)
}

func (m *Manager) move(e *Entity, dz float64) {
	e.Position[2] += dz
	if e.Handle != 0 && m.scene != nil {
		m.scene.Move(e.Handle, e.Position)
	}
}

// Advance moves every live entity one frame, tests obstacles and
// collectibles against the player volume, and despawns what passed the
// boundary. An obstacle hit stops the frame immediately.
func (m *Manager) Advance(speed float64, player Box) AdvanceResult {
	var res AdvanceResult
	m.travelled += speed

	for i := len(m.obstacles) - 1; i >= 0; i-- {
		e := m.obstacles[i]
		m.move(e, speed)

		if HitTest(player, e, m.cfg.EntityShrink) {
			res.Hit = e
			return res
		}
		if e.Position[2] > m.cfg.DespawnDistance {
			m.removeAt(KindObstacle, i)
		}
	}

	m.advanceCollectibles(KindCollectible, speed, player, m.cfg.CollectiblePoints, &res)
	m.advanceCollectibles(KindSponsorCollectible, speed, player, m.cfg.SponsorPoints, &res)

	for i := len(m.banners) - 1; i >= 0; i-- {
		e := m.banners[i]
		m.move(e, m.cfg.BannerSpeed)
		if e.Position[2] > m.cfg.DespawnDistance {
			m.removeAt(KindSponsorBanner, i)
		}
	}

	return res
}

func (m *Manager) advanceCollectibles(k Kind, speed float64, player Box, points int, res *AdvanceResult) {
	s := m.set(k)
	for i := len(*s) - 1; i >= 0; i-- {
		e := (*s)[i]
		m.move(e, speed)

		if HitTest(player, e, m.cfg.EntityShrink) {
			res.Collected = append(res.Collected, Collection{ID: e.ID, Kind: k, Points: points, Sponsor: e.Sponsor})
			m.removeAt(k, i)
			continue
		}
		if e.Position[2] > m.cfg.DespawnDistance {
			m.removeAt(k, i)
		}
	}
}

// clusterSize picks how many obstacles a wave contains: 40% a single one,
// otherwise a cluster of 2 to 4.
func (m *Manager) clusterSize() int {
	if m.rng.Float64() < 0.4 {
		return 1
	}
	switch r := m.rng.Float64(); {
	case r < 0.3:
		return 4
	case r < 0.65:
		return 3
	default:
		return 2
	}
}

// SpawnWave creates one wave of obstacles plus the optional collectibles and
// banner that ride along with it. Every returned obstacle is local.
func (m *Manager) SpawnWave() Wave {
	var w Wave
	width := m.cfg.LaneWidth
	count := m.clusterSize()
	nearestZ := m.cfg.SpawnDistance

	for i := 0; i < count; i++ {
		var x, z float64
		if count > 1 {
			segment := width / float64(count)
			x = -width/2 + float64(i)*segment + m.rng.Float64()*segment
			z = m.cfg.SpawnDistance + m.rng.Float64()*3 - 1.5
		} else {
			x = m.rng.Float64()*width - width/2
			z = m.cfg.SpawnDistance
		}
		nearestZ = min(nearestZ, z)

		e := &Entity{ID: m.newID(), Kind: KindObstacle, Position: mgl64.Vec3{x, 0, z}, Origin: OriginLocal}
		m.add(e)
		w.Obstacles = append(w.Obstacles, e)
	}

	w.Collectible = m.trySpawnCollectible(KindCollectible, m.cfg.CollectibleChance, nearestZ)
	w.Sponsor = m.trySpawnCollectible(KindSponsorCollectible, m.cfg.SponsorCollectibleChance, nearestZ)
	w.Banner = m.TriggerBanner(nearestZ)
	return w
}

func (m *Manager) trySpawnCollectible(k Kind, chance, baseZ float64) *Entity {
	if m.rng.Float64() >= chance {
		return nil
	}
	width := m.cfg.LaneWidth
	e := &Entity{
		ID:   m.newID(),
		Kind: k,
		Position: mgl64.Vec3{
			m.rng.Float64()*width - width/2,
			m.cfg.CollectibleHeight,
			baseZ + m.rng.Float64()*2 - 1,
		},
		Origin: OriginLocal,
	}
	if k == KindSponsorCollectible {
		e.Sponsor = m.pickSponsor()
	}
	m.add(e)
	return e
}

func (m *Manager) pickSponsor() string {
	if len(m.cfg.Sponsors) == 0 {
		return ""
	}
	return m.cfg.Sponsors[m.rng.Intn(len(m.cfg.Sponsors))]
}

// TriggerBanner spawns a sponsor banner at z once the world has travelled
// past the next banner threshold. The caller passes the nearest spawn Z.
func (m *Manager) TriggerBanner(z float64) *Entity {
	if m.travelled < m.nextBanner || len(m.cfg.Sponsors) == 0 {
		return nil
	}

	side := 1.0
	if m.rng.Float64() < 0.5 {
		side = -1
	}
	e := &Entity{
		ID:       m.newID(),
		Kind:     KindSponsorBanner,
		Position: mgl64.Vec3{side * m.cfg.BannerSideOffset, m.cfg.BannerY, z},
		Origin:   OriginLocal,
		Sponsor:  m.pickSponsor(),
	}
	m.add(e)
	if e.Handle != 0 {
		m.scene.SetTint(e.Handle, bannerTint(e.Sponsor))
	}

	m.nextBanner = m.travelled + m.cfg.BannerInterval*(0.8+m.rng.Float64()*0.4)
	return e
}

// bannerTint is the background colour a sponsor logo is drawn on.
func bannerTint(sponsor string) uint32 {
	if sponsor == "dapta" {
		return 0x000000
	}
	return 0xffffff
}

// SpawnRemote creates an obstacle announced by a peer. Ids already known
// locally or from peers are ignored. Reports whether an entity was created.
func (m *Manager) SpawnRemote(id string, pos mgl64.Vec3) bool {
	if id == "" {
		return false
	}
	if _, seen := m.remoteIDs[id]; seen {
		return false
	}
	if _, live := m.Find(KindObstacle, id); live {
		return false
	}

	m.remoteIDs[id] = struct{}{}
	m.add(&Entity{ID: id, Kind: KindObstacle, Position: pos, Origin: OriginRemote})
	return true
}

// RemoveByID drops a live entity without awarding anything. Unknown ids are
// ignored.
func (m *Manager) RemoveByID(k Kind, id string) bool {
	s := m.set(k)
	if s == nil {
		return false
	}
	for i := len(*s) - 1; i >= 0; i-- {
		if (*s)[i].ID == id {
			m.removeAt(k, i)
			return true
		}
	}
	return false
}

// Clear removes every live entity without notifications and forgets the
// remote ids and banner progress.
func (m *Manager) Clear() {
	total := 0
	for _, k := range []Kind{KindObstacle, KindCollectible, KindSponsorCollectible, KindSponsorBanner} {
		s := m.set(k)
		total += len(*s)
		for i := len(*s) - 1; i >= 0; i-- {
			m.removeAt(k, i)
		}
	}
	clear(m.remoteIDs)
	m.travelled = 0
	m.nextBanner = m.cfg.BannerInterval
	if total > 0 {
		log.Printf("🧹 Cleared %d entities", total)
	}
}
