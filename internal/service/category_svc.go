package service

import (
	"context"
	"strings"
	"time"

	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/apperr"
	"buildmart_dev_v1_202608/internal/model"
	"buildmart_dev_v1_202608/internal/repository"
	"buildmart_dev_v1_202608/pkg/utils"
)

// ==================== CategoryService 分类服务 ====================

// 分类树改动少、读取频繁，进程内缓存 5 分钟，写操作后主动失效
const (
	categoryTreeCacheKey = "category:tree"
	categoryTreeCacheTTL = 5 * time.Minute
)

// CategoryService 商品分类维护，写操作仅限管理员
type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CreateCategory 创建分类，slug 全局唯一
func (s *CategoryService) CreateCategory(ctx context.Context, req *dto.CreateCategoryRequest) (*dto.CategoryInfo, error) {
	slug := strings.ToLower(strings.TrimSpace(req.Slug))

	exists, err := s.categoryRepo.ExistsBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrSlugTaken
	}

	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrCategoryNotFound
		}
		// 只允许两级结构
		if !parent.IsRoot() {
			return nil, apperr.Validation("categories nest at most two levels")
		}
	}

	category := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        slug,
		ParentID:    req.ParentID,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	utils.DeleteCache(categoryTreeCacheKey)
	return toCategoryInfo(category), nil
}

// UpdateCategory 更新分类名称/描述/排序
func (s *CategoryService) UpdateCategory(ctx context.Context, categoryID int64, req *dto.UpdateCategoryRequest) (*dto.CategoryInfo, error) {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil {
		category.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	utils.DeleteCache(categoryTreeCacheKey)
	return toCategoryInfo(category), nil
}

// DeleteCategory 删除分类，挂有商品或子分类时拒绝
func (s *CategoryService) DeleteCategory(ctx context.Context, categoryID int64) error {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	hasProducts, err := s.categoryRepo.HasProducts(ctx, categoryID)
	if err != nil {
		return err
	}
	if hasProducts {
		return ErrCategoryInUse
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, categoryID)
	if err != nil {
		return err
	}
	if hasChildren {
		return ErrCategoryHasChildren
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return err
	}
	utils.DeleteCache(categoryTreeCacheKey)
	return nil
}

// ListCategories 全量分类树，带进程内缓存
func (s *CategoryService) ListCategories(ctx context.Context) ([]*dto.CategoryInfo, error) {
	if cached, ok := utils.GetCache(categoryTreeCacheKey); ok {
		return cached.([]*dto.CategoryInfo), nil
	}

	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tree := buildCategoryTree(categories)
	utils.SetCache(categoryTreeCacheKey, tree, categoryTreeCacheTTL)
	return tree, nil
}

// GetCategory 分类详情（按 ID 或 slug）
func (s *CategoryService) GetCategory(ctx context.Context, idOrSlug string) (*dto.CategoryInfo, error) {
	var category *model.Category
	var err error

	if id, ok := parseID(idOrSlug); ok {
		category, err = s.categoryRepo.GetByID(ctx, id)
	} else {
		category, err = s.categoryRepo.GetBySlug(ctx, strings.ToLower(idOrSlug))
	}
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	return toCategoryInfo(category), nil
}

// buildCategoryTree 平铺列表组树，顶级在外层，子级按 SortOrder 挂入
func buildCategoryTree(categories []model.Category) []*dto.CategoryInfo {
	nodes := make(map[int64]*dto.CategoryInfo, len(categories))
	roots := make([]*dto.CategoryInfo, 0)

	for i := range categories {
		nodes[categories[i].ID] = toCategoryInfo(&categories[i])
	}
	for i := range categories {
		node := nodes[categories[i].ID]
		if categories[i].ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*categories[i].ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else {
			// 父级被删除时降级为顶级展示
			roots = append(roots, node)
		}
	}
	return roots
}

func parseID(s string) (int64, bool) {
	var id int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		id = id*10 + int64(c-'0')
	}
	return id, id > 0
}

// ==================== 错误定义 ====================

var (
	ErrSlugTaken           = apperr.Conflict("category slug already in use")
	ErrCategoryInUse       = apperr.Conflict("category still has products")
	ErrCategoryHasChildren = apperr.Conflict("category still has subcategories")
)
