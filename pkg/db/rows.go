package db

// ClusterRow is the clusters table.
type ClusterRow struct {
	ID        int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:128"`
	Status    string `gorm:"size:32"`
	ReleaseID int
}

func (ClusterRow) TableName() string { return "clusters" }

// TaskRow keeps one deployment task of a cluster as a JSON document.
type TaskRow struct {
	ID        uint `gorm:"primaryKey"`
	ClusterID int  `gorm:"index"`
	Position  int
	Payload   string `gorm:"type:text"`
}

func (TaskRow) TableName() string { return "deployment_tasks" }

// TransactionRow keeps a transaction as a JSON document.
type TransactionRow struct {
	ID      int    `gorm:"primaryKey"`
	Payload string `gorm:"type:text"`
}

func (TransactionRow) TableName() string { return "transactions" }

// HistoryRow keeps one deployment history record as a JSON document.
type HistoryRow struct {
	ID            uint `gorm:"primaryKey"`
	TransactionID int  `gorm:"index"`
	Position      int
	Payload       string `gorm:"type:mediumtext"`
}

func (HistoryRow) TableName() string { return "deployment_history" }
