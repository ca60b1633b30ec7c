package repository

import (
	"time"

	"github.com/feedbackfortress/backend/internal/crypto"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GrievanceRepository owns every read/write path of the grievance
// entity. Subject and details are encrypted before any insert and
// decrypted after any fetch; callers only ever see plaintext.
type GrievanceRepository struct {
	db    *gorm.DB
	codec *crypto.Codec
}

func NewGrievanceRepository(db *gorm.DB, codec *crypto.Codec) *GrievanceRepository {
	return &GrievanceRepository{db: db, codec: codec}
}

func (r *GrievanceRepository) decrypt(g *domain.Grievance) {
	g.Subject = r.codec.DecryptField(g.Subject)
	g.Details = r.codec.DecryptField(g.Details)
}

func (r *GrievanceRepository) decryptAll(gs []domain.Grievance) {
	for i := range gs {
		r.decrypt(&gs[i])
	}
}

// Create persists a new grievance. The caller's plaintext subject and
// details are restored on the struct after the insert.
func (r *GrievanceRepository) Create(g *domain.Grievance) error {
	subject, details := g.Subject, g.Details

	encSubject, err := r.codec.EncryptField(subject)
	if err != nil {
		return err
	}
	encDetails, err := r.codec.EncryptField(details)
	if err != nil {
		return err
	}

	g.Subject = encSubject
	g.Details = encDetails
	if err := r.db.Create(g).Error; err != nil {
		g.Subject, g.Details = subject, details
		return err
	}
	g.Subject, g.Details = subject, details
	return nil
}

// FindOwned fetches a non-deleted grievance only when it belongs to
// ownerID; anything else is a record-not-found.
func (r *GrievanceRepository) FindOwned(ownerID, id uuid.UUID) (*domain.Grievance, error) {
	var g domain.Grievance
	err := r.db.Where("id = ? AND user_id = ?", id, ownerID).First(&g).Error
	if err != nil {
		return nil, err
	}
	r.decrypt(&g)
	return &g, nil
}

func (r *GrievanceRepository) FindByID(id uuid.UUID) (*domain.Grievance, error) {
	var g domain.Grievance
	err := r.db.Preload("User").Where("id = ?", id).First(&g).Error
	if err != nil {
		return nil, err
	}
	r.decrypt(&g)
	return &g, nil
}

func (r *GrievanceRepository) ListForOwner(ownerID uuid.UUID) ([]domain.Grievance, error) {
	var gs []domain.Grievance
	err := r.db.Where("user_id = ?", ownerID).Order("created_at DESC").Find(&gs).Error
	if err != nil {
		return nil, err
	}
	r.decryptAll(gs)
	return gs, nil
}

func (r *GrievanceRepository) ListAll() ([]domain.Grievance, error) {
	var gs []domain.Grievance
	err := r.db.Preload("User").Order("created_at DESC").Find(&gs).Error
	if err != nil {
		return nil, err
	}
	r.decryptAll(gs)
	return gs, nil
}

// SoftDelete marks an owned grievance deleted. Records of other users
// are indistinguishable from missing ones.
func (r *GrievanceRepository) SoftDelete(ownerID, id uuid.UUID) error {
	res := r.db.Where("id = ? AND user_id = ?", id, ownerID).Delete(&domain.Grievance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GrievanceRepository) ListDeleted(ownerID uuid.UUID) ([]domain.Grievance, error) {
	var gs []domain.Grievance
	err := r.db.Unscoped().
		Where("user_id = ? AND deleted_at IS NOT NULL", ownerID).
		Order("deleted_at DESC").
		Find(&gs).Error
	if err != nil {
		return nil, err
	}
	r.decryptAll(gs)
	return gs, nil
}

// Restore clears deleted_at on an owned, soft-deleted grievance.
// UpdateColumn leaves updated_at alone so the record comes back in
// exactly its prior state.
func (r *GrievanceRepository) Restore(ownerID, id uuid.UUID) error {
	res := r.db.Unscoped().Model(&domain.Grievance{}).
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, ownerID).
		UpdateColumn("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ForceDelete permanently removes an owned grievance, and only from
// the soft-deleted set. The attachment blob is left in storage; see
// DESIGN.md for the rationale.
func (r *GrievanceRepository) ForceDelete(ownerID, id uuid.UUID) error {
	res := r.db.Unscoped().
		Where("id = ? AND user_id = ? AND deleted_at IS NOT NULL", id, ownerID).
		Delete(&domain.Grievance{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStatus writes the new workflow state. Updates touches updated_at,
// which doubles as the time the record entered its current status for
// the reporting queries.
func (r *GrievanceRepository) SetStatus(id uuid.UUID, status domain.GrievanceStatus) (*domain.Grievance, error) {
	res := r.db.Model(&domain.Grievance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// MarkResolved closes out a grievance with a resolution message.
func (r *GrievanceRepository) MarkResolved(id uuid.UUID, message string) (*domain.Grievance, error) {
	now := time.Now()
	res := r.db.Model(&domain.Grievance{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":             domain.StatusResolved,
			"resolution_message": message,
			"resolved_at":        now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// AppendAttachment records a stored blob key on the grievance.
func (r *GrievanceRepository) AppendAttachment(id uuid.UUID, key string) error {
	g, err := r.FindByID(id)
	if err != nil {
		return err
	}
	attachments := append(g.Attachments, key)
	return r.db.Model(&domain.Grievance{}).
		Where("id = ?", id).
		UpdateColumn("attachments", attachments).Error
}

// CountByStatus returns per-status counts over non-deleted rows.
func (r *GrievanceRepository) CountByStatus() (map[domain.GrievanceStatus]int64, int64, error) {
	type row struct {
		Status domain.GrievanceStatus
		N      int64
	}
	var rows []row
	err := r.db.Model(&domain.Grievance{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[domain.GrievanceStatus]int64, len(rows))
	var total int64
	for _, rw := range rows {
		counts[rw.Status] = rw.N
		total += rw.N
	}
	return counts, total, nil
}

// CountByStatusForOwner returns the caller's own per-status counts.
func (r *GrievanceRepository) CountByStatusForOwner(ownerID uuid.UUID) (map[domain.GrievanceStatus]int64, int64, error) {
	type row struct {
		Status domain.GrievanceStatus
		N      int64
	}
	var rows []row
	err := r.db.Model(&domain.Grievance{}).
		Where("user_id = ?", ownerID).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[domain.GrievanceStatus]int64, len(rows))
	var total int64
	for _, rw := range rows {
		counts[rw.Status] = rw.N
		total += rw.N
	}
	return counts, total, nil
}

// RecentlyUpdated returns the n most recently touched grievances.
func (r *GrievanceRepository) RecentlyUpdated(n int) ([]domain.Grievance, error) {
	var gs []domain.Grievance
	err := r.db.Order("updated_at DESC").Limit(n).Find(&gs).Error
	if err != nil {
		return nil, err
	}
	r.decryptAll(gs)
	return gs, nil
}

// AllWithOwners loads every non-deleted grievance with its owner, for
// the reporting computations. Decrypted like every other read path.
func (r *GrievanceRepository) AllWithOwners() ([]domain.Grievance, error) {
	var gs []domain.Grievance
	err := r.db.Preload("User").Order("created_at ASC").Find(&gs).Error
	if err != nil {
		return nil, err
	}
	r.decryptAll(gs)
	return gs, nil
}
