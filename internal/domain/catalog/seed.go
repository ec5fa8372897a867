package catalog

// Seed returns the predefined catalogs the clinic ships with.
func Seed() []Item {
	return []Item{
		{ID: "1", Kind: KindService, Name: "Khám răng tổng quát", Price: 200000, IsActive: true},
		{ID: "2", Kind: KindService, Name: "Lấy cao răng", Price: 300000, IsActive: true},
		{ID: "3", Kind: KindService, Name: "Trám răng", Price: 500000, IsActive: true},
		{ID: "4", Kind: KindService, Name: "Nhổ răng", Price: 400000, IsActive: true},
		{ID: "5", Kind: KindService, Name: "Tẩy trắng răng", Price: 2000000, IsActive: true},

		{ID: "1", Kind: KindDisease, Name: "Sâu răng", Price: 300000, IsActive: true},
		{ID: "2", Kind: KindDisease, Name: "Viêm nướu", Price: 250000, IsActive: true},
		{ID: "3", Kind: KindDisease, Name: "Răng khôn", Price: 1500000, IsActive: true},
		{ID: "4", Kind: KindDisease, Name: "Viêm tủy răng", Price: 800000, IsActive: true},
		{ID: "5", Kind: KindDisease, Name: "Nứt răng", Price: 600000, IsActive: true},
	}
}
