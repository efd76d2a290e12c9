package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hammamikhairi/ottolift/internal/logger"
)

// recentEntries bounds the cache of one-off lines such as replies that echo
// what the user said.
const recentEntries = 64

// cueKey identifies one synthesized line. The rate is kept in hundredths so
// 1.1 and 1.1000001 share an entry.
type cueKey struct {
	text  string
	centi int
}

func keyFor(text string, rate float64) cueKey {
	return cueKey{text: text, centi: int(math.Round(rate * 100))}
}

// CacheStats is a point-in-time view of the cache.
type CacheStats struct {
	Hits   int64
	Misses int64
	Pinned int // cue lines held for the whole session
	Recent int // one-off lines in the LRU
}

// AudioCache holds synthesized speech for the voice it was built with.
//
// Lines registered with Pin form the cue vocabulary: tempo words, rep
// numbers and rest announcements. They are spoken over and over and are
// never evicted. Anything else goes into a small LRU. Both tiers read
// through to an optional directory of WAV files laid out as
// <dir>/<voice>/<rate>/<slug>-<hash>.wav, so a warm start after the first
// run needs no synthesis at all.
type AudioCache struct {
	log       *logger.Logger
	voice     string
	dir       string // empty disables the disk layer
	diskWrite bool

	mu     sync.Mutex
	pinned map[cueKey][]byte // nil value: pinned, not synthesized yet
	recent *lru.Cache[cueKey, []byte]
	hits   int64
	misses int64
}

// NewAudioCache creates a cache for voice. An empty dir keeps everything in
// memory; diskWrite=false still reads existing files but never adds new ones.
func NewAudioCache(voice, dir string, diskWrite bool, log *logger.Logger) *AudioCache {
	recent, _ := lru.New[cueKey, []byte](recentEntries)
	c := &AudioCache{
		log:       log,
		voice:     voice,
		dir:       dir,
		diskWrite: diskWrite,
		pinned:    make(map[cueKey][]byte),
		recent:    recent,
	}
	if dir != "" && diskWrite {
		if err := os.MkdirAll(c.voiceDir(), 0o755); err != nil {
			log.Error("cache: creating %s: %v", c.voiceDir(), err)
		}
	}
	return c
}

// Pin registers texts at rate as cue vocabulary, loading any that exist on
// disk. It returns the texts that still need synthesis. Empty strings are
// skipped.
func (c *AudioCache) Pin(rate float64, texts ...string) []string {
	var missing []string
	for _, text := range texts {
		if text == "" {
			continue
		}
		k := keyFor(text, rate)

		c.mu.Lock()
		audio := c.pinned[k]
		if audio == nil {
			if v, ok := c.recent.Peek(k); ok {
				audio = v
				c.recent.Remove(k)
			}
		}
		c.mu.Unlock()

		if audio == nil {
			audio, _ = c.readDisk(k)
		}

		c.mu.Lock()
		c.pinned[k] = audio
		c.mu.Unlock()

		if audio == nil {
			missing = append(missing, text)
		}
	}
	return missing
}

// Get returns audio for text spoken at rate.
func (c *AudioCache) Get(text string, rate float64) ([]byte, bool) {
	k := keyFor(text, rate)

	c.mu.Lock()
	audio, isCue := c.pinned[k]
	if audio == nil {
		audio, _ = c.recent.Get(k)
	}
	if audio != nil {
		c.hits++
	}
	c.mu.Unlock()
	if audio != nil {
		return audio, true
	}

	if disk, ok := c.readDisk(k); ok {
		c.store(k, disk, isCue)
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		c.log.Debug("cache hit (disk): %s", truncate(text, 40))
		return disk, true
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return nil, false
}

// Put stores audio for text at rate, in the pinned tier if text was pinned
// at that rate, and on disk when writes are enabled.
func (c *AudioCache) Put(text string, rate float64, audio []byte) {
	k := keyFor(text, rate)

	c.mu.Lock()
	_, isCue := c.pinned[k]
	c.mu.Unlock()

	c.store(k, audio, isCue)
	c.log.Debug("cache store: %s (%d bytes, cue=%t)", truncate(text, 40), len(audio), isCue)

	if c.dir != "" && c.diskWrite {
		c.writeDisk(k, audio)
	}
}

// Has reports whether audio for text at rate is available without
// synthesis.
func (c *AudioCache) Has(text string, rate float64) bool {
	k := keyFor(text, rate)

	c.mu.Lock()
	ok := c.pinned[k] != nil || c.recent.Contains(k)
	c.mu.Unlock()
	if ok {
		return true
	}
	if c.dir == "" {
		return false
	}
	_, err := os.Stat(c.diskPath(k))
	return err == nil
}

// Len returns the number of lines held in memory.
func (c *AudioCache) Len() int {
	s := c.Stats()
	return s.Pinned + s.Recent
}

// Stats returns hit, miss and size counts.
func (c *AudioCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := CacheStats{Hits: c.hits, Misses: c.misses, Recent: c.recent.Len()}
	for _, audio := range c.pinned {
		if audio != nil {
			s.Pinned++
		}
	}
	return s
}

func (c *AudioCache) store(k cueKey, audio []byte, isCue bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if isCue {
		c.pinned[k] = audio
		return
	}
	c.recent.Add(k, audio)
}

// ── Disk layer ───────────────────────────────────────────────────

func (c *AudioCache) voiceDir() string {
	return filepath.Join(c.dir, slug(c.voice, 48))
}

// diskPath keeps the file name readable; the hash tells apart texts that
// slug to the same name.
func (c *AudioCache) diskPath(k cueKey) string {
	sum := sha256.Sum256([]byte(k.text))
	name := fmt.Sprintf("%s-%s.wav", slug(k.text, 32), hex.EncodeToString(sum[:4]))
	return filepath.Join(c.voiceDir(), fmt.Sprintf("%03d", k.centi), name)
}

func (c *AudioCache) readDisk(k cueKey) ([]byte, bool) {
	if c.dir == "" {
		return nil, false
	}
	data, err := os.ReadFile(c.diskPath(k))
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *AudioCache) writeDisk(k cueKey, audio []byte) {
	path := c.diskPath(k)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		c.log.Error("cache: creating %s: %v", filepath.Dir(path), err)
		return
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		c.log.Error("cache: disk write failed for %s: %v", path, err)
	}
}

// slug lowercases s and keeps letters and digits, joining runs of anything
// else with a single dash.
func slug(s string, max int) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= max {
			break
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "x"
	}
	return out
}
