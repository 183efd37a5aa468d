// Package access 持卡人目录与门禁判定
package access

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound 卡号未登记
var ErrNotFound = errors.New("cardholder not found")

// Cardholder 持卡人
type Cardholder struct {
	CardID     string     `yaml:"cardId" json:"card_id"`
	Name       string     `yaml:"name" json:"name"`
	Disabled   bool       `yaml:"disabled" json:"disabled"`
	ValidUntil *time.Time `yaml:"validUntil,omitempty" json:"valid_until,omitempty"`
}

// Directory 持卡人查询
type Directory interface {
	Lookup(ctx context.Context, cardID string) (*Cardholder, error)
}

// NormalizeCardID 卡号统一为去空白的大写形式
func NormalizeCardID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// MemoryDirectory 内存目录
type MemoryDirectory struct {
	mu    sync.RWMutex
	cards map[string]Cardholder
}

func NewMemoryDirectory(holders ...Cardholder) *MemoryDirectory {
	d := &MemoryDirectory{cards: make(map[string]Cardholder, len(holders))}
	for _, h := range holders {
		d.Put(h)
	}
	return d
}

// Put 新增或覆盖持卡人
func (d *MemoryDirectory) Put(h Cardholder) {
	h.CardID = NormalizeCardID(h.CardID)
	d.mu.Lock()
	d.cards[h.CardID] = h
	d.mu.Unlock()
}

// Delete 删除持卡人
func (d *MemoryDirectory) Delete(cardID string) {
	d.mu.Lock()
	delete(d.cards, NormalizeCardID(cardID))
	d.mu.Unlock()
}

func (d *MemoryDirectory) Lookup(_ context.Context, cardID string) (*Cardholder, error) {
	d.mu.RLock()
	h, ok := d.cards[NormalizeCardID(cardID)]
	d.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

// Len 持卡人数量
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cards)
}

type seedFile struct {
	Cardholders []Cardholder `yaml:"cardholders"`
}

// LoadCardholders 从 YAML 种子文件加载持卡人
func LoadCardholders(path string) ([]Cardholder, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse cardholders %s: %w", path, err)
	}
	for i, h := range f.Cardholders {
		if NormalizeCardID(h.CardID) == "" {
			return nil, fmt.Errorf("cardholders[%d]: cardId is required", i)
		}
	}
	return f.Cardholders, nil
}
