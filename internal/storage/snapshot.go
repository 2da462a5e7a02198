// Package storage — snapshot.go отвечает за долговременное хранение
// снимка экономики. Снимок — один JSON-документ, который полностью
// перезаписывается после каждой мутации (write-through). Бэкапы —
// неизменяемые копии документа с меткой времени в имени файла.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Promo описывает активный промокод в каталоге.
type Promo struct {
	Reward decimal.Decimal `json:"reward"` // Сумма начисления за активацию
	Limit  int             `json:"limit"`  // Максимум активаций всего
	Used   int             `json:"used"`   // Сколько раз уже активирован (только растёт)
}

// Snapshot — полный снимок состояния экономики.
// Эфемерное состояние (диалоги, незавершённые вычисления) сюда не входит.
// Поля referrals/referral_count зарезервированы: они сохраняются и
// восстанавливаются как есть, но игровая логика их не читает.
type Snapshot struct {
	Balances         map[int64]decimal.Decimal `json:"balances"`
	Upgrades         map[int64]map[string]int  `json:"upgrades"`
	PassiveLast      map[int64]time.Time       `json:"passive_last"`
	UsedPromocodes   map[int64]map[string]bool `json:"used_promocodes"`
	ActivePromocodes map[string]*Promo         `json:"active_promocodes"`
	// Дата последней ежедневной награды в формате "2006-01-02"
	DailyRewards  map[int64]string `json:"daily_rewards"`
	Referrals     json.RawMessage  `json:"referrals,omitempty"`
	ReferralCount json.RawMessage  `json:"referral_count,omitempty"`
}

// NewEmptySnapshot создаёт пустой снимок с инициализированными картами.
func NewEmptySnapshot() *Snapshot {
	return &Snapshot{
		Balances:         make(map[int64]decimal.Decimal),
		Upgrades:         make(map[int64]map[string]int),
		PassiveLast:      make(map[int64]time.Time),
		UsedPromocodes:   make(map[int64]map[string]bool),
		ActivePromocodes: make(map[string]*Promo),
		DailyRewards:     make(map[int64]string),
	}
}

// normalize досоздаёт карты, отсутствовавшие в прочитанном документе,
// чтобы остальной код не проверял их на nil. Наборы ключей по игрокам
// в документе не обязаны совпадать: у игрока может быть баланс без
// записей об улучшениях или промокодах, поэтому внутренние карты
// досоздаются тоже.
func (s *Snapshot) normalize() {
	if s.Balances == nil {
		s.Balances = make(map[int64]decimal.Decimal)
	}
	if s.Upgrades == nil {
		s.Upgrades = make(map[int64]map[string]int)
	}
	if s.PassiveLast == nil {
		s.PassiveLast = make(map[int64]time.Time)
	}
	if s.UsedPromocodes == nil {
		s.UsedPromocodes = make(map[int64]map[string]bool)
	}
	if s.ActivePromocodes == nil {
		s.ActivePromocodes = make(map[string]*Promo)
	}
	if s.DailyRewards == nil {
		s.DailyRewards = make(map[int64]string)
	}

	for id, m := range s.Upgrades {
		if m == nil {
			s.Upgrades[id] = make(map[string]int)
		}
	}
	for id, m := range s.UsedPromocodes {
		if m == nil {
			s.UsedPromocodes[id] = make(map[string]bool)
		}
	}
	for id := range s.Balances {
		if s.Upgrades[id] == nil {
			s.Upgrades[id] = make(map[string]int)
		}
		if s.UsedPromocodes[id] == nil {
			s.UsedPromocodes[id] = make(map[string]bool)
		}
	}
}

// Store читает и пишет снимок экономики на диск.
type Store struct {
	dataFile  string
	backupDir string
}

// NewStore создаёт хранилище и папку для бэкапов.
func NewStore(dataFile, backupDir string) (*Store, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания папки бэкапов: %w", err)
	}
	return &Store{dataFile: dataFile, backupDir: backupDir}, nil
}

// Load читает снимок с диска.
// Отсутствующий файл — нормальный первый запуск, возвращается пустой снимок.
// Нечитаемый файл переименовывается в <файл>.bak для разбора, и запуск
// продолжается с пустого снимка — повреждение данных не роняет процесс.
func (s *Store) Load() (*Snapshot, error) {
	raw, err := os.ReadFile(s.dataFile)
	if os.IsNotExist(err) {
		return NewEmptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", s.dataFile, err)
	}

	if len(raw) == 0 {
		return NewEmptySnapshot(), nil
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		quarantine := s.dataFile + ".bak"
		log.WithError(err).WithFields(log.Fields{
			"file":       s.dataFile,
			"quarantine": quarantine,
		}).Error("ПОВРЕЖДЁННЫЙ снимок экономики — файл отложен, старт с пустого состояния")

		if renameErr := os.Rename(s.dataFile, quarantine); renameErr != nil {
			log.WithError(renameErr).Error("Не удалось отложить повреждённый файл")
		}
		return NewEmptySnapshot(), nil
	}

	snap.normalize()
	return &snap, nil
}

// Save полностью перезаписывает снимок на диске.
// Запись идёт через временный файл с последующим rename, чтобы
// частично записанный документ не затёр предыдущий валидный.
func (s *Store) Save(snap *Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	tmp := s.dataFile + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.dataFile); err != nil {
		return fmt.Errorf("ошибка замены %s: %w", s.dataFile, err)
	}
	return nil
}

// Backup создаёт неизменяемую копию текущего снимка с меткой времени.
// Старые бэкапы никогда не удаляются. Возвращает путь созданной копии.
func (s *Store) Backup() (string, error) {
	raw, err := os.ReadFile(s.dataFile)
	if os.IsNotExist(err) {
		// Файла ещё нет — бэкапим пустой документ
		raw, err = json.MarshalIndent(NewEmptySnapshot(), "", "    ")
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения снимка для бэкапа: %w", err)
	}

	name := fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.backupDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("ошибка записи бэкапа %s: %w", path, err)
	}
	return path, nil
}
