package service

import (
	"buildmart_dev_v1_202608/internal/api/dto"
	"buildmart_dev_v1_202608/internal/model"
)

// 模型到 DTO 的共用转换，各 service 直接调用

// ==================== 账号与档案 ====================

func toUserInfo(u *model.User) *dto.UserInfo {
	if u == nil {
		return nil
	}
	return &dto.UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		Phone:       u.Phone,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toCustomerInfo(c *model.Customer) *dto.CustomerInfo {
	if c == nil {
		return nil
	}
	return &dto.CustomerInfo{
		ID:               c.ID,
		Name:             c.Name,
		CustomerType:     c.CustomerType,
		CompanyName:      c.CompanyName,
		TaxNumber:        c.TaxNumber,
		DefaultAddress:   c.DefaultAddress,
		CreditLimitCents: c.CreditLimitCents,
		CreditUsedCents:  c.CreditUsedCents,
	}
}

func toSupplierInfo(s *model.Supplier) *dto.SupplierInfo {
	if s == nil {
		return nil
	}
	return &dto.SupplierInfo{
		ID:               s.ID,
		BusinessName:     s.BusinessName,
		Description:      s.Description,
		Status:           s.Status,
		ServiceAreas:     s.ServiceAreas,
		Categories:       s.Categories,
		MinOrderCents:    s.MinOrderCents,
		DeliveryFeeCents: s.DeliveryFeeCents,
		RatingAvg:        s.RatingAvg,
		RatingCount:      s.RatingCount,
		CreatedAt:        s.CreatedAt,
	}
}

func toSupplierBrief(s *model.Supplier) *dto.SupplierBrief {
	if s == nil {
		return nil
	}
	return &dto.SupplierBrief{
		ID:           s.ID,
		BusinessName: s.BusinessName,
		RatingAvg:    s.RatingAvg,
		RatingCount:  s.RatingCount,
	}
}

// ==================== 商品与分类 ====================

func toProductInfo(p *model.Product) *dto.ProductInfo {
	return &dto.ProductInfo{
		ID:               p.ID,
		SupplierID:       p.SupplierID,
		CategoryID:       p.CategoryID,
		Name:             p.Name,
		Description:      p.Description,
		SKU:              p.SKU,
		Brand:            p.Brand,
		Status:           p.Status,
		PriceCents:       p.PriceCents,
		Unit:             p.Unit,
		StockQuantity:    p.StockQuantity,
		MinOrderQuantity: p.MinOrderQuantity,
		Images:           p.Images,
		Specs:            p.Specs,
		RatingAvg:        p.RatingAvg,
		RatingCount:      p.RatingCount,
		SoldCount:        p.SoldCount,
		CreatedAt:        p.CreatedAt,
	}
}

func toCategoryInfo(c *model.Category) *dto.CategoryInfo {
	return &dto.CategoryInfo{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		ParentID:    c.ParentID,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

// ==================== 订单与配送 ====================

func toOrderInfo(o *model.Order) *dto.OrderInfo {
	return &dto.OrderInfo{
		ID:               o.ID,
		OrderNo:          o.OrderNo,
		CustomerID:       o.CustomerID,
		Status:           o.Status,
		SubtotalCents:    o.SubtotalCents,
		TaxCents:         o.TaxCents,
		DeliveryFeeCents: o.DeliveryFeeCents,
		DiscountCents:    o.DiscountCents,
		GrandTotalCents:  o.GrandTotalCents,
		Currency:         o.Currency,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PromoCode:        o.PromoCode,
		ItemCount:        len(o.Items),
		CreatedAt:        o.CreatedAt,
	}
}

func toOrderItemInfo(i *model.OrderItem) *dto.OrderItemInfo {
	return &dto.OrderItemInfo{
		ID:               i.ID,
		ProductID:        i.ProductID,
		SupplierID:       i.SupplierID,
		SurplusListingID: i.SurplusListingID,
		ProductName:      i.ProductName,
		SKU:              i.SKU,
		Unit:             i.Unit,
		Quantity:         i.Quantity,
		UnitPriceCents:   i.UnitPriceCents,
		TotalCents:       i.TotalCents,
	}
}

func toDeliveryInfo(d *model.Delivery) *dto.DeliveryInfo {
	return &dto.DeliveryInfo{
		ID:            d.ID,
		OrderID:       d.OrderID,
		SupplierID:    d.SupplierID,
		Status:        d.Status,
		WindowStart:   d.WindowStart,
		WindowEnd:     d.WindowEnd,
		Address:       d.Address,
		FeeCents:      d.FeeCents,
		DriverName:    d.DriverName,
		DriverPhone:   d.DriverPhone,
		VehicleReg:    d.VehicleReg,
		ProofURL:      d.ProofURL,
		FailureReason: d.FailureReason,
		DeliveredAt:   d.DeliveredAt,
		CreatedAt:     d.CreatedAt,
	}
}

// ==================== 评价与通知 ====================

func toReviewInfo(r *model.Review) *dto.ReviewInfo {
	return &dto.ReviewInfo{
		ID:            r.ID,
		ProductID:     r.ProductID,
		CustomerID:    r.CustomerID,
		OrderID:       r.OrderID,
		Rating:        r.Rating,
		Title:         r.Title,
		Body:          r.Body,
		Images:        r.Images,
		SupplierReply: r.SupplierReply,
		RepliedAt:     r.RepliedAt,
		CreatedAt:     r.CreatedAt,
	}
}

func toNotificationInfo(n *model.Notification) *dto.NotificationInfo {
	return &dto.NotificationInfo{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// ==================== 尾货与促销 ====================

func toSurplusInfo(s *model.SurplusListing) *dto.SurplusInfo {
	return &dto.SurplusInfo{
		ID:                 s.ID,
		SupplierID:         s.SupplierID,
		ProductID:          s.ProductID,
		Title:              s.Title,
		Description:        s.Description,
		Condition:          s.Condition,
		Status:             s.Status,
		Quantity:           s.Quantity,
		Unit:               s.Unit,
		UnitPriceCents:     s.UnitPriceCents,
		OriginalPriceCents: s.OriginalPriceCents,
		DiscountPercent:    s.DiscountPercent(),
		Images:             s.Images,
		ExpiresAt:          s.ExpiresAt,
		CreatedAt:          s.CreatedAt,
	}
}

func toPromotionInfo(p *model.Promotion) *dto.PromotionInfo {
	return &dto.PromotionInfo{
		ID:               p.ID,
		Code:             p.Code,
		Description:      p.Description,
		SupplierID:       p.SupplierID,
		DiscountType:     p.DiscountType,
		DiscountValue:    p.DiscountValue,
		MinOrderCents:    p.MinOrderCents,
		MaxDiscountCents: p.MaxDiscountCents,
		StartsAt:         p.StartsAt,
		EndsAt:           p.EndsAt,
		UsageLimit:       p.UsageLimit,
		UsageCount:       p.UsageCount,
		Status:           p.Status,
		CreatedAt:        p.CreatedAt,
	}
}

// ==================== 售后与工单 ====================

func toIssueInfo(i *model.Issue) *dto.IssueInfo {
	return &dto.IssueInfo{
		ID:          i.ID,
		OrderID:     i.OrderID,
		CustomerID:  i.CustomerID,
		SupplierID:  i.SupplierID,
		Type:        i.Type,
		Description: i.Description,
		Photos:      i.Photos,
		Status:      i.Status,
		Resolution:  i.Resolution,
		ResolvedAt:  i.ResolvedAt,
		CreatedAt:   i.CreatedAt,
	}
}

func toTicketInfo(t *model.SupportTicket) *dto.TicketInfo {
	return &dto.TicketInfo{
		ID:           t.ID,
		TicketNumber: t.TicketNumber,
		UserID:       t.UserID,
		Subject:      t.Subject,
		Category:     t.Category,
		Priority:     t.Priority,
		Status:       t.Status,
		AssignedTo:   t.AssignedTo,
		ClosedAt:     t.ClosedAt,
		CreatedAt:    t.CreatedAt,
	}
}

func toTicketMessageInfo(m *model.SupportMessage) *dto.TicketMessageInfo {
	return &dto.TicketMessageInfo{
		ID:       m.ID,
		SenderID: m.SenderID,
		Body:     m.Body,
		IsStaff:  m.IsStaff,
		SentAt:   m.CreatedAt,
	}
}

func toChatMessageInfo(m *model.ChatMessage) *dto.ChatMessageInfo {
	return &dto.ChatMessageInfo{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		Attachments:    m.Attachments,
		IsRead:         m.IsRead,
		SentAt:         m.CreatedAt,
	}
}
